package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	restrequest "github.com/apankov/kohana-restrequest"
	"github.com/apankov/kohana-restrequest/internal/config"
	"github.com/apankov/kohana-restrequest/internal/logger"
)

// ErrConflictingBody indicates that both --data and --form were given.
var ErrConflictingBody = errors.New("--data and --form cannot be combined")

// ErrInvalidForm indicates a --form value without '='.
var ErrInvalidForm = errors.New("form field must look like key=value")

type flags struct {
	configFile string
	headers    []string
	data       string
	form       []string
	head       bool
	include    bool
	as         string
	path       string
	selector   string
	insecure   bool
	location   bool
	timeout    string
	proxy      string
	backend    string
	verbose    bool
}

// NewRootCommand builds the restrequest command tree writing the decoded
// body to out and diagnostics to errOut.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	f := &flags{}

	root := &cobra.Command{
		Use:   "restrequest",
		Short: "Issue REST calls and decode the response.",
		Long: `restrequest performs a single HTTP call and prints the response body,
optionally decoded as JSON, XML, YAML or HTML.

Configuration is read from .env, an optional YAML file (--config) and
RESTREQUEST_* environment variables; flags override all of them.`,
		Version:       restrequest.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.SetVersionTemplate(restrequest.GetVersion() + "\n")

	pf := root.PersistentFlags()
	pf.StringVarP(&f.configFile, "config", "c", "", "path to a YAML configuration file")
	pf.StringArrayVarP(&f.headers, "header", "H", nil, "request header 'Name: value' (repeatable)")
	pf.BoolVarP(&f.head, "head", "I", false, "fetch headers only")
	pf.BoolVarP(&f.include, "include", "i", false, "print the status line and headers before the body")
	pf.StringVarP(&f.as, "as", "a", formatText, "decode the body as text, json, xml, yaml or html")
	pf.StringVar(&f.path, "path", "", "print a single gjson path from a JSON body")
	pf.StringVar(&f.selector, "select", "", "print the text of elements matching a CSS selector")
	pf.BoolVarP(&f.insecure, "insecure", "k", false, "skip TLS peer verification")
	pf.BoolVarP(&f.location, "location", "L", false, "follow redirects")
	pf.StringVar(&f.timeout, "timeout", "", "whole transfer timeout, e.g. 10s")
	pf.StringVar(&f.proxy, "proxy", "", "proxy URL")
	pf.StringVar(&f.backend, "backend", "", "transfer backend (nethttp or resty)")
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "print status, protocol and size to stderr")

	for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete} {
		root.AddCommand(newMethodCommand(method, f, out, errOut))
	}

	return root
}

func newMethodCommand(method string, f *flags, out, errOut io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   strings.ToLower(method) + " URL",
		Short: fmt.Sprintf("Send a %s request", method),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd.Flags(), method, args[0], f, out, errOut)
		},
	}

	if method != http.MethodGet && method != http.MethodHead {
		cmd.Flags().StringVarP(&f.data, "data", "d", "", "raw request body")
		cmd.Flags().StringArrayVarP(&f.form, "form", "F", nil, "form field key=value (repeatable)")
	}

	return cmd
}

func run(ctx context.Context, fs *pflag.FlagSet, method, rawURL string, f *flags, out, errOut io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(f.configFile)
	if err != nil {
		return err
	}

	if err = bindFlagsToConfig(fs, f, cfg); err != nil {
		return err
	}

	log := logger.Init(cfg.ParsedLogLevel, errOut)
	defer func() { _ = logger.Close() }()

	client := restrequest.New(
		restrequest.WithBackend(cfg.Backend),
		restrequest.WithOptions(cfg.Options()),
		restrequest.WithLogger(restrequest.NewZapLogger(log)),
		restrequest.WithDebug(),
	)
	if !client.IsValid() {
		return client.ValidationError()
	}

	body, err := requestBody(f)
	if err != nil {
		return err
	}

	headers := mergeHeaders(cfg.Headers, f.headers)
	extra := restrequest.Options{restrequest.OptHeader: f.include}

	build := restrequest.GetVersionInfo()
	log.Debug("sending request",
		zap.String("method", method),
		zap.String("url", rawURL),
		zap.String("version", build.Version),
		zap.String("commit", build.Commit),
	)

	var resp *restrequest.Response
	switch method {
	case http.MethodGet:
		resp, err = client.Get(ctx, rawURL, headers, f.head, extra)
	case http.MethodHead:
		resp, err = client.Head(ctx, rawURL, headers, extra)
	case http.MethodPost:
		resp, err = client.Post(ctx, rawURL, body, headers, f.head, extra)
	case http.MethodPut:
		resp, err = client.Put(ctx, rawURL, body, headers, f.head, extra)
	case http.MethodPatch:
		resp, err = client.Patch(ctx, rawURL, body, headers, f.head, extra)
	case http.MethodDelete:
		resp, err = client.Delete(ctx, rawURL, body, headers, f.head, extra)
	default:
		return fmt.Errorf("unsupported method %s", method)
	}
	if err != nil {
		return err
	}

	if f.verbose {
		writeSummary(errOut, resp)
	}

	return render(out, resp, renderOptions{as: f.as, path: f.path, selector: f.selector})
}

// bindFlagsToConfig applies flags that were set explicitly, then validates.
func bindFlagsToConfig(fs *pflag.FlagSet, f *flags, cfg *config.Config) error {
	if changed(fs, "backend") {
		cfg.Backend = f.backend
	}

	if changed(fs, "timeout") {
		cfg.Timeout = f.timeout
	}

	if changed(fs, "proxy") {
		cfg.Proxy = f.proxy
	}

	if changed(fs, "insecure") {
		cfg.Insecure = f.insecure
	}

	if changed(fs, "location") {
		cfg.FollowRedirects = f.location
	}

	if changed(fs, "verbose") && f.verbose {
		cfg.LogLevel = "debug"
	}

	return config.Validate(cfg)
}

func changed(fs *pflag.FlagSet, name string) bool {
	flag := fs.Lookup(name)
	return flag != nil && flag.Changed
}

// mergeHeaders drops configured header lines whose name is repeated on the
// command line.
func mergeHeaders(configured, given []string) []string {
	override := make(map[string]bool, len(given))
	for _, line := range given {
		override[headerName(line)] = true
	}

	merged := make([]string, 0, len(configured)+len(given))
	for _, line := range configured {
		if !override[headerName(line)] {
			merged = append(merged, line)
		}
	}

	return append(merged, given...)
}

func headerName(line string) string {
	if i := strings.IndexAny(line, ":;"); i >= 0 {
		line = line[:i]
	}
	return http.CanonicalHeaderKey(strings.TrimSpace(line))
}

// requestBody returns the raw --data string, a url.Values built from --form,
// or nil when neither was given.
func requestBody(f *flags) (any, error) {
	if f.data != "" && len(f.form) > 0 {
		return nil, ErrConflictingBody
	}

	if len(f.form) > 0 {
		values := url.Values{}
		for _, field := range f.form {
			key, value, ok := strings.Cut(field, "=")
			if !ok || key == "" {
				return nil, fmt.Errorf("%w: '%s'", ErrInvalidForm, field)
			}
			values.Add(key, value)
		}
		return values, nil
	}

	if f.data != "" {
		return f.data, nil
	}

	return nil, nil
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, args []string, out, errOut io.Writer) int {
	root := NewRootCommand(out, errOut)
	root.SetArgs(args)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(errOut, "Error:", err)
		return 1
	}

	return 0
}
