// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package orchestrator

import (
	"path/filepath"
	"testing"

	"github.com/pdiddy/curio/pkg/types"
)

func TestQueryFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vermeer.yaml")

	res := Result{
		Items: []types.Item{
			{ID: "SK-C-5", Source: "rijks", Title: "The Night Watch", Century: "17th", FilterDate: yearPtr(1642)},
			{ID: "437133", Source: "met", Title: "Wheat Field with Cypresses", Century: "19th"},
		},
		TotalAvailable: 311,
		Warnings:       []string{"europeana results incomplete"},
		Complete:       true,
	}

	if err := WriteQueryFile(path, "vermeer", res); err != nil {
		t.Fatalf("WriteQueryFile: %v", err)
	}

	qf, err := ReadQueryFile(path)
	if err != nil {
		t.Fatalf("ReadQueryFile: %v", err)
	}

	if qf.Query != "vermeer" {
		t.Errorf("Query = %q", qf.Query)
	}
	if qf.Summary.Total != 2 || qf.Summary.TotalAvailable != 311 {
		t.Errorf("Summary = %+v", qf.Summary)
	}
	if len(qf.Summary.Warnings) != 1 {
		t.Errorf("Warnings = %v", qf.Summary.Warnings)
	}
	if qf.Summary.Timestamp.IsZero() {
		t.Error("Timestamp not set")
	}
	if len(qf.Items) != 2 {
		t.Fatalf("len(Items) = %d, want 2", len(qf.Items))
	}
	if qf.Items[0].Key() != "rijks:SK-C-5" {
		t.Errorf("Items[0].Key() = %q", qf.Items[0].Key())
	}
	if qf.Items[0].FilterDate == nil || *qf.Items[0].FilterDate != 1642 {
		t.Errorf("Items[0].FilterDate = %v", qf.Items[0].FilterDate)
	}
}

func TestReadQueryFileMissing(t *testing.T) {
	if _, err := ReadQueryFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("want error for missing file")
	}
}
