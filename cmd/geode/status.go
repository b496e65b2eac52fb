// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/blinklabs-io/geode/api"
	"github.com/blinklabs-io/geode/internal/config"
	"github.com/spf13/cobra"
)

// fetchStatus queries a running node. The node holds the database lock, so
// status goes through the REST API instead of opening storage directly.
func fetchStatus(
	ctx context.Context,
	client *http.Client,
	baseUrl string,
) (*api.StatusResponse, *api.ProxyResponse, error) {
	var status api.StatusResponse
	if err := getJSON(ctx, client, baseUrl+"/api/v1/registry", &status); err != nil {
		return nil, nil, err
	}
	var proxyStatus api.ProxyResponse
	if err := getJSON(ctx, client, baseUrl+"/api/v1/proxy", &proxyStatus); err != nil {
		return nil, nil, err
	}
	return &status, &proxyStatus, nil
}

func getJSON(ctx context.Context, client *http.Client, url string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("query %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		var apiErr api.ErrorResponse
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
			return fmt.Errorf("query %s: %s", url, apiErr.Message)
		}
		return fmt.Errorf("query %s: unexpected status %s", url, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response from %s: %w", url, err)
	}
	return nil
}

func statusBaseUrl(cfg *config.Config, override string) (string, error) {
	if override != "" {
		return strings.TrimSuffix(override, "/"), nil
	}
	if cfg.ApiPort == 0 {
		return "", errors.New("API is disabled (apiPort is 0), pass --url")
	}
	host := cfg.BindAddr
	if host == "" || host == "0.0.0.0" {
		host = "127.0.0.1"
	}
	return fmt.Sprintf("http://%s:%d", host, cfg.ApiPort), nil
}

func statusCommand() *cobra.Command {
	var url string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the state of a running registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromContext(cmd.Context())
			if cfg == nil {
				return errors.New("no config found in context")
			}
			baseUrl, err := statusBaseUrl(cfg, url)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			status, proxyStatus, err := fetchStatus(ctx, http.DefaultClient, baseUrl)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "owner:             %s\n", status.Owner)
			fmt.Fprintf(out, "workspace counter: %d\n", status.WorkspaceCounter)
			fmt.Fprintf(out, "lifecycle:         %s\n", status.Lifecycle)
			fmt.Fprintf(out, "implementation:    %s\n", proxyStatus.Implementation)
			fmt.Fprintf(out, "proxy admin:       %s\n", proxyStatus.ProxyAdmin)
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "base URL of the node API")
	return cmd
}
