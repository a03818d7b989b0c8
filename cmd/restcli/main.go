package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/samvad-hq/samvad-rest-client/internal/config"
	"github.com/samvad-hq/samvad-rest-client/internal/logger"
	"github.com/samvad-hq/samvad-rest-client/pkg/rest"
)

var exampleUsage = strings.TrimSpace(`
  restcli get /v1/status
  restcli --profile staging post /v1/messaging phone_number=15551234567 message="hello"
  restcli --content-type application/json post /v1/messaging phone_number=15551234567
`)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "restcli: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var profile, contentType string

	root := &cobra.Command{
		Use:           "restcli",
		Short:         "Send signed requests to the vendor REST API",
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", rest.Version, runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&profile, "profile", "", "profile id from the profiles file")
	root.PersistentFlags().StringVar(&contentType, "content-type", rest.ContentTypeForm, "request content type")

	for _, verb := range []string{"get", "post", "put", "patch", "delete"} {
		root.AddCommand(newVerbCmd(verb, &profile, &contentType))
	}
	return root
}

func newVerbCmd(verb string, profile, contentType *string) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <resource> [key=value ...]",
		Short: strings.ToUpper(verb) + " a resource",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), verb, args[0], args[1:], *profile, *contentType)
		},
	}
}

func run(ctx context.Context, verb, resource string, kvArgs []string, profile, contentType string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if profile != "" {
		cfg.Profile = profile
	}
	if cfg.Profile != "" {
		reg, err := config.LoadProfiles(cfg.ProfilesFile)
		if err != nil {
			return fmt.Errorf("load profiles: %w", err)
		}
		p, ok := reg.Lookup(cfg.Profile)
		if !ok {
			return fmt.Errorf("unknown profile %q (have %s)", cfg.Profile, strings.Join(reg.IDs(), ", "))
		}
		cfg.Apply(p)
	}
	if cfg.CustomerID == "" || cfg.APIKey == "" {
		return fmt.Errorf("missing credentials: set api_customer_id and api_key or select a profile")
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	fields, err := parseFields(kvArgs)
	if err != nil {
		return err
	}

	opts := []rest.Option{rest.WithTimeout(cfg.Timeout), rest.WithLogger(log)}
	if cfg.Endpoint != "" {
		opts = append(opts, rest.WithEndpoint(cfg.Endpoint))
	}
	if cfg.Proxy != "" {
		opts = append(opts, rest.WithProxy(cfg.Proxy))
	}
	client := rest.New(cfg.CustomerID, cfg.APIKey, opts...)

	var call func(context.Context, string, rest.Fields, ...rest.RequestOption) (*rest.Response, error)
	switch verb {
	case "get":
		call = client.Get
	case "post":
		call = client.Post
	case "put":
		call = client.Put
	case "patch":
		call = client.Patch
	case "delete":
		call = client.Delete
	default:
		return fmt.Errorf("unknown verb %q", verb)
	}

	resp, err := call(ctx, resource, fields, rest.WithContentType(contentType))
	if err != nil {
		return err
	}

	log.Infow("response received", "status", resp.StatusCode, "ok", resp.Ok())
	fmt.Fprintf(os.Stdout, "%d\n", resp.StatusCode)
	if len(resp.Body) > 0 {
		fmt.Fprintln(os.Stdout, resp.String())
	}
	return nil
}

// parseFields turns key=value arguments into ordered request fields.
func parseFields(args []string) (rest.Fields, error) {
	var fields rest.Fields
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid field %q (want key=value)", arg)
		}
		fields = append(fields, rest.F(key, value))
	}
	return fields, nil
}
