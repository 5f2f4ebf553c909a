// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/curio/internal/relay"
	"github.com/pdiddy/curio/pkg/types"
)

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Serve the same-origin relay for Europeana",
	Long: `Relay runs the pass-through proxy browser clients need for Europeana,
which does not grant cross-origin access. The API credential is injected
server-side; query parameters and response bodies pass through verbatim.`,
	RunE: runRelay,
}

func init() {
	relayCmd.Flags().String("listen", "", "listen address (default :8600)")

	rootCmd.AddCommand(relayCmd)
}

func runRelay(cmd *cobra.Command, args []string) error {
	listen, _ := cmd.Flags().GetString("listen")
	if listen == "" {
		listen = viper.GetString("relay.listen")
	}
	if listen == "" {
		listen = ":8600"
	}

	upstream := viper.GetString("relay.upstream_base")
	if upstream == "" {
		upstream = "https://api.europeana.eu/record/v2/search.json"
	}

	apiKey := secretDefault("europeana-api-key", viper.GetString("relay.api_key"))
	if apiKey == "" {
		return fmt.Errorf("europeana API key required: add .secrets/europeana-api-key or set relay.api_key")
	}

	cfg := types.RelayConfig{
		Listen:       listen,
		UpstreamBase: upstream,
		APIKey:       apiKey,
	}

	h := relay.New(cfg, nil, logrus.StandardLogger())
	fmt.Fprintf(os.Stderr, "relay listening on %s, forwarding to %s\n", listen, upstream)
	return http.ListenAndServe(listen, h)
}
