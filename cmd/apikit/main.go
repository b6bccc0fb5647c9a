package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"apikit"
	"apikit/config"
	"apikit/pkg/logger"
)

var (
	flagBaseURL string
	flagToken   string
	flagTimeout time.Duration
	flagHeaders []string
	flagForm    bool
	flagParams  []string
	flagData    []string
	flagJSON    string
)

func main() {
	logger.Init()

	root := &cobra.Command{
		Use:           "apikit",
		Short:         "Issue API requests through the apikit client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagBaseURL, "base-url", "", "base URL prepended to request paths")
	root.PersistentFlags().StringVar(&flagToken, "token", "", "bearer token sent with every request")
	root.PersistentFlags().DurationVar(&flagTimeout, "timeout", 0, "request timeout (e.g. 5s)")
	root.PersistentFlags().StringArrayVar(&flagHeaders, "header", nil, "extra header, key:value (repeatable)")
	root.PersistentFlags().BoolVar(&flagForm, "form", false, "encode bodies as application/x-www-form-urlencoded")

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		cmd := newQueryCommand(method)
		cmd.Flags().StringArrayVar(&flagParams, "param", nil, "query parameter, key=value (repeatable)")
		root.AddCommand(cmd)
	}
	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodPatch} {
		cmd := newBodyCommand(method)
		cmd.Flags().StringArrayVar(&flagData, "data", nil, "body field, key=value (repeatable)")
		cmd.Flags().StringVar(&flagJSON, "json", "", "raw JSON body (overrides --data)")
		root.AddCommand(cmd)
	}

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("Request failed")
		os.Exit(1)
	}
}

func newQueryCommand(method string) *cobra.Command {
	name := strings.ToLower(method)
	return &cobra.Command{
		Use:   name + " <url>",
		Short: fmt.Sprintf("Issue a %s request", method),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parsePairs(flagParams, "=")
			if err != nil {
				return err
			}
			return run(cmd.Context(), apikit.Request{
				Method: method,
				Path:   args[0],
				Params: params,
			})
		},
	}
}

func newBodyCommand(method string) *cobra.Command {
	name := strings.ToLower(method)
	return &cobra.Command{
		Use:   name + " <url>",
		Short: fmt.Sprintf("Issue a %s request", method),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var body interface{}
			var header map[string]string
			if flagJSON != "" {
				body = flagJSON
				header = map[string]string{"Content-Type": "application/json"}
			} else if len(flagData) > 0 {
				data, err := parsePairs(flagData, "=")
				if err != nil {
					return err
				}
				body = data
			}
			return run(cmd.Context(), apikit.Request{
				Method: method,
				Path:   args[0],
				Body:   body,
				Header: header,
				Form:   flagForm && flagJSON == "",
			})
		},
	}
}

func run(ctx context.Context, req apikit.Request) error {
	client, err := buildClient()
	if err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}

	res, err := client.Do(ctx, req)
	if res != nil && len(res.Body) > 0 {
		fmt.Println(res.String())
	}
	return err
}

func buildClient() (*apikit.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	opts := []apikit.Option{apikit.WithLogger(logger.Get())}

	baseURL := cfg.BaseURL
	if flagBaseURL != "" {
		baseURL = flagBaseURL
	}
	if baseURL != "" {
		opts = append(opts, apikit.WithBaseURL(baseURL))
	}

	token := cfg.AuthToken
	if flagToken != "" {
		token = flagToken
	}
	if token != "" {
		opts = append(opts, apikit.WithAuthToken(token))
	}

	timeout := cfg.Timeout
	if flagTimeout > 0 {
		timeout = flagTimeout
	}
	if timeout > 0 {
		opts = append(opts, apikit.WithTimeout(timeout))
	}

	if flagForm || cfg.Encoding == config.EncodingForm {
		opts = append(opts, apikit.WithFormEncoding())
	}

	headers, err := parsePairs(flagHeaders, ":")
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		opts = append(opts, apikit.WithHeader(k, v))
	}

	return apikit.New(opts...), nil
}

func parsePairs(pairs []string, sep string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		key, value, found := strings.Cut(p, sep)
		if !found || key == "" {
			return nil, fmt.Errorf("invalid pair %q, expected key%svalue", p, sep)
		}
		out[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return out, nil
}
