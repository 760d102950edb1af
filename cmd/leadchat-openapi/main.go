// Command leadchat-openapi writes the OpenAPI document of the lead chat API.
// Routes are registered with stub handlers, so nothing external is needed.
//
//	go run ./cmd/leadchat-openapi -format yaml -output openapi.yaml
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"github.com/jmylchreest/leadchat-api/internal/http/routes"
	"github.com/jmylchreest/leadchat-api/internal/version"
)

func main() {
	output := flag.String("output", "", "Output file path (default: stdout)")
	format := flag.String("format", "json", "Document format: json, yaml or json30 (OpenAPI 3.0.3)")
	baseURL := flag.String("base-url", "http://localhost:8080", "Base URL for the API server")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Get().Short())
		return
	}

	var w io.Writer = os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error creating %s: %v\n", *output, err)
			os.Exit(1)
		}
		defer f.Close()
		w = f
	}

	if err := generate(w, *baseURL, *format); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if *output != "" {
		fmt.Fprintf(os.Stderr, "OpenAPI document written to %s\n", *output)
	}
}

func generate(w io.Writer, baseURL, format string) error {
	api := humachi.New(chi.NewRouter(), routes.NewHumaConfig(baseURL))
	routes.Register(api, routes.StubHandlers())

	doc := api.OpenAPI()
	doc.Info.Version = version.Get().Short()

	var (
		data []byte
		err  error
	)
	switch format {
	case "json":
		data, err = doc.MarshalJSON()
	case "yaml":
		data, err = doc.YAML()
	case "json30":
		data, err = doc.Downgrade()
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return fmt.Errorf("marshal OpenAPI document: %w", err)
	}

	_, err = w.Write(data)
	return err
}
