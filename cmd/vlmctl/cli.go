package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"vlmd/pkg/client"
	"vlmd/pkg/types"
)

// buildRootCmd constructs the Cobra command tree. Output goes to w so tests
// can capture it.
func buildRootCmd(w io.Writer) *cobra.Command {
	var serverURL string
	var timeout time.Duration
	var rawJSON bool

	root := &cobra.Command{
		Use:           "vlmctl",
		Short:         "Query a running vlmd instance",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&serverURL, "server", envOr("VLMD_SERVER", "http://localhost:8000"), "Base URL of the vlmd server")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "Request timeout")
	root.PersistentFlags().BoolVar(&rawJSON, "json", false, "Print raw JSON responses")

	newClient := func() *client.Client {
		return client.New(serverURL, client.WithHTTPClient(&http.Client{Timeout: timeout}))
	}

	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Show server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := newClient().Health(cmd.Context())
			if err != nil {
				return err
			}
			if rawJSON {
				return printJSON(w, resp)
			}
			fmt.Fprintf(w, "status: %s\nmodel_loaded: %v\ndevice: %s\n", resp.Status, resp.ModelLoaded, resp.Device)
			return nil
		},
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Show server configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := newClient().Config(cmd.Context())
			if err != nil {
				return err
			}
			if rawJSON {
				return printJSON(w, resp)
			}
			fmt.Fprintf(w, "model_path: %s\nmodel_base: %s\nconv_mode: %s\ndevice: %s\nmodel_loaded: %v\n",
				resp.ModelPath, resp.ModelBase, resp.ConvMode, resp.Device, resp.ModelLoaded)
			return nil
		},
	}

	var prompt string
	var temperature float64
	var topP float64
	var numBeams int
	var maxTokens int
	inferCmd := &cobra.Command{
		Use:     "infer <image-file>",
		Short:   "Run inference on an image file",
		Example: "  vlmctl infer screenshot.png -p \"What is shown in this image?\"",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := types.InferRequest{}
			if cmd.Flags().Changed("temperature") {
				req.Temperature = &temperature
			}
			if cmd.Flags().Changed("top-p") {
				req.TopP = &topP
			}
			if cmd.Flags().Changed("num-beams") {
				req.NumBeams = &numBeams
			}
			if cmd.Flags().Changed("max-tokens") {
				req.MaxTokens = &maxTokens
			}
			resp, err := newClient().InferImageFile(cmd.Context(), prompt, args[0], req)
			if err != nil {
				return err
			}
			if rawJSON {
				return printJSON(w, resp)
			}
			if !resp.Success {
				msg := "unknown error"
				if resp.Error != nil {
					msg = *resp.Error
				}
				return fmt.Errorf("inference failed: %s", msg)
			}
			if resp.Result != nil {
				fmt.Fprintln(w, *resp.Result)
			}
			fmt.Fprintf(w, "(%.2fs)\n", resp.InferenceTime)
			return nil
		},
	}
	inferCmd.Flags().StringVarP(&prompt, "prompt", "p", "What is shown in this image?", "Prompt text")
	inferCmd.Flags().Float64Var(&temperature, "temperature", 0.2, "Sampling temperature (0 = greedy)")
	inferCmd.Flags().Float64Var(&topP, "top-p", 0.9, "Nucleus sampling probability")
	inferCmd.Flags().IntVar(&numBeams, "num-beams", 1, "Beam count")
	inferCmd.Flags().IntVar(&maxTokens, "max-tokens", 256, "Maximum new tokens")

	waitCmd := &cobra.Command{
		Use:   "wait",
		Short: "Block until the server reports a loaded model",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()
			deadline := time.Now().Add(timeout)
			for {
				resp, err := c.Health(cmd.Context())
				if err == nil && resp.ModelLoaded {
					fmt.Fprintln(w, "ready")
					return nil
				}
				if time.Now().After(deadline) {
					return fmt.Errorf("server not ready after %s", timeout)
				}
				select {
				case <-cmd.Context().Done():
					return cmd.Context().Err()
				case <-time.After(time.Second):
				}
			}
		},
	}

	root.AddCommand(healthCmd, configCmd, inferCmd, waitCmd)
	return root
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
