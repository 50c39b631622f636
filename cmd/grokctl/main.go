package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"grokctl/pkg/client"
	"grokctl/pkg/config"
	"grokctl/pkg/media"
	"grokctl/pkg/types"
)

// streamPrinter echoes deltas to stdout as they arrive.
type streamPrinter struct{}

func (h *streamPrinter) OnContent(content string) {
	fmt.Print(content)
}

func (h *streamPrinter) OnError(err error) {
	fmt.Fprintf(os.Stderr, "\nError: %v\n", err)
}

func (h *streamPrinter) OnComplete() {
	fmt.Println()
}

// videoProgress watches streamed deltas for progress markers and shows them
// on stderr, keeping stdout clean for the extracted URLs.
type videoProgress struct {
	tracker *media.ProgressTracker
}

func (h *videoProgress) OnContent(content string) {
	if _, found := h.tracker.Observe(content); found {
		fmt.Fprintf(os.Stderr, "\r%s", strings.TrimSpace(content))
	}
}

func (h *videoProgress) OnError(err error) {
	fmt.Fprintf(os.Stderr, "\nError: %v\n", err)
}

func (h *videoProgress) OnComplete() {
	fmt.Fprintln(os.Stderr)
}

var log = logrus.New()

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// newClient resolves configuration and fails fast on a missing key, before
// any network call.
func newClient(cmd *cobra.Command) (*client.Client, config.Config) {
	key, _ := cmd.Flags().GetString("key")
	cfg, err := config.Load(key)
	if err != nil {
		fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		fatal(err)
	}
	return client.NewClient(cfg, log), cfg
}

// runCompletion sends the messages and prints the result, streaming when
// asked to. The --model flag wins over the configured default.
func runCompletion(cmd *cobra.Command, messages []types.Message) {
	c, cfg := newClient(cmd)
	req := types.ChatRequest{
		Model:    cfg.Model,
		Messages: messages,
	}
	if cmd.Flags().Changed("model") {
		req.Model, _ = cmd.Flags().GetString("model")
	}
	if temp, err := cmd.Flags().GetFloat64("temperature"); err == nil && cmd.Flags().Changed("temperature") {
		req.Temperature = &temp
	}
	if maxTokens, err := cmd.Flags().GetInt("max-tokens"); err == nil && cmd.Flags().Changed("max-tokens") {
		req.MaxTokens = &maxTokens
	}

	stream, _ := cmd.Flags().GetBool("stream")
	if stream {
		if _, err := c.StreamChat(cmd.Context(), req, &streamPrinter{}); err != nil {
			fatal(err)
		}
		return
	}

	resp, err := c.CreateChatCompletion(cmd.Context(), req)
	if err != nil {
		fatal(err)
	}
	content, err := client.FirstContent(resp)
	if err != nil {
		fatal(err)
	}
	fmt.Println(content)
}

func addCompletionFlags(cmd *cobra.Command) {
	cmd.Flags().String("model", config.DefaultModel, "Model ID")
	cmd.Flags().Bool("stream", false, "Stream the response")
	cmd.Flags().Float64("temperature", 0, "Sampling temperature")
	cmd.Flags().Int("max-tokens", 0, "Maximum completion tokens")
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "grokctl",
		Short: "A CLI tool for the Grok chat-completion proxy",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetOutput(os.Stderr)
			log.SetLevel(logrus.WarnLevel)
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				log.SetLevel(logrus.DebugLevel)
			}
		},
	}
	rootCmd.PersistentFlags().String("key", "", "API key (overrides GROK_API_KEY)")
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable debug logging")

	setupCmd := &cobra.Command{
		Use:   "setup",
		Short: "Save your API key to a .env file",
		Run: func(cmd *cobra.Command, args []string) {
			reader := bufio.NewReader(os.Stdin)
			fmt.Print("Enter your API key: ")
			apiKey, _ := reader.ReadString('\n')
			apiKey = strings.TrimSpace(apiKey)

			envContent := fmt.Sprintf("GROK_API_KEY=%s\n", apiKey)
			if err := os.WriteFile(".env", []byte(envContent), 0o600); err != nil {
				fatal(fmt.Errorf("failed to write .env file: %w", err))
			}

			fmt.Println("API key saved to .env file successfully!")
		},
	}

	chatCmd := &cobra.Command{
		Use:   "chat <message>",
		Short: "Send a single user message",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			var messages []types.Message
			if system, _ := cmd.Flags().GetString("system"); system != "" {
				messages = append(messages, types.Message{Role: types.RoleSystem, Content: system})
			}
			messages = append(messages, types.Message{Role: types.RoleUser, Content: args[0]})
			runCompletion(cmd, messages)
		},
	}
	addCompletionFlags(chatCmd)
	chatCmd.Flags().String("system", "", "System message to prepend")

	fileCmd := &cobra.Command{
		Use:   "file <messages.json>",
		Short: "Send a messages array from a JSON file",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				fatal(fmt.Errorf("failed to read messages file: %w", err))
			}
			var messages []types.Message
			if err := json.Unmarshal(raw, &messages); err != nil {
				fatal(fmt.Errorf("invalid messages file: %w", err))
			}
			runCompletion(cmd, messages)
		},
	}
	addCompletionFlags(fileCmd)

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "List available models",
		Run: func(cmd *cobra.Command, args []string) {
			c, _ := newClient(cmd)
			list, err := c.ListModels(cmd.Context())
			if err != nil {
				fatal(err)
			}
			for _, m := range list.Data {
				fmt.Println(m.ID)
			}
		},
	}

	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify the API key is valid",
		Run: func(cmd *cobra.Command, args []string) {
			// /models doubles as a lightweight auth check.
			c, _ := newClient(cmd)
			list, err := c.ListModels(cmd.Context())
			if err != nil {
				fatal(err)
			}
			fmt.Printf("OK — %d models available\n", len(list.Data))
			for _, m := range list.Data {
				fmt.Printf("  %s\n", m.ID)
			}
		},
	}

	imageCmd := &cobra.Command{
		Use:   "image <prompt>",
		Short: "Generate an image from a text prompt",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			c, _ := newClient(cmd)
			req := types.ChatRequest{
				Model:    config.ImageModel,
				Messages: []types.Message{{Role: types.RoleUser, Content: args[0]}},
			}
			resp, err := c.CreateChatCompletion(cmd.Context(), req)
			if err != nil {
				fatal(err)
			}
			content, err := client.FirstContent(resp)
			if err != nil {
				fatal(err)
			}
			if result, ok := media.Extract(content); ok {
				fmt.Println("Image URL:", result.URL)
			} else {
				fmt.Println(content)
			}
		},
	}

	videoCmd := &cobra.Command{
		Use:   "video <prompt>",
		Short: "Generate a video from a text prompt",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			c, _ := newClient(cmd)
			req := types.ChatRequest{
				Model:    config.VideoModel,
				Messages: []types.Message{{Role: types.RoleUser, Content: args[0]}},
			}

			fmt.Fprintln(os.Stderr, "Generating video (this takes 20-90 seconds)...")
			handler := &videoProgress{tracker: media.NewProgressTracker()}
			full, err := c.StreamChat(cmd.Context(), req, handler)
			if err != nil {
				fatal(err)
			}

			result, ok := media.Extract(full)
			if !ok {
				fmt.Fprintln(os.Stderr, "Could not extract video URL. Raw output:")
				tail := full
				if len(tail) > 500 {
					tail = tail[len(tail)-500:]
				}
				fmt.Fprintln(os.Stderr, tail)
				return
			}
			fmt.Println("Video URL:", result.URL)
			if result.Poster != "" {
				fmt.Println("Preview URL:", result.Poster)
			}
		},
	}

	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(fileCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(imageCmd)
	rootCmd.AddCommand(videoCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
