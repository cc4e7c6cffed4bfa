package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	restrequest "github.com/apankov/kohana-restrequest"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatXML  = "xml"
	formatYAML = "yaml"
	formatHTML = "html"
)

type renderOptions struct {
	as       string
	path     string
	selector string
}

// render writes the response body to w. --path and --select take
// precedence over --as.
func render(w io.Writer, resp *restrequest.Response, opts renderOptions) error {
	switch {
	case opts.path != "":
		result, err := resp.GetPath(opts.path)
		if err != nil {
			return err
		}
		if !result.Exists() {
			return fmt.Errorf("path %q not found", opts.path)
		}
		if result.IsObject() || result.IsArray() {
			_, err = fmt.Fprintln(w, result.Raw)
			return err
		}
		_, err = fmt.Fprintln(w, result.String())
		return err

	case opts.selector != "":
		doc, err := resp.HTML()
		if err != nil {
			return err
		}
		var werr error
		doc.Find(opts.selector).Each(func(_ int, s *goquery.Selection) {
			if werr == nil {
				_, werr = fmt.Fprintln(w, strings.TrimSpace(s.Text()))
			}
		})
		return werr
	}

	switch strings.ToLower(opts.as) {
	case "", formatText:
		_, err := io.WriteString(w, resp.Text())
		return err

	case formatJSON:
		v, err := resp.JSON(true)
		if err != nil {
			return err
		}
		return writeJSON(w, v)

	case formatXML:
		node, err := resp.XML()
		if err != nil {
			return err
		}
		return writeJSON(w, node)

	case formatYAML:
		v, err := decodeAny(resp)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()

	case formatHTML:
		doc, err := resp.HTML()
		if err != nil {
			return err
		}
		title := strings.TrimSpace(doc.Find("title").First().Text())
		text := strings.Join(strings.Fields(doc.Find("body").Text()), " ")
		if title != "" {
			if _, err := fmt.Fprintln(w, title); err != nil {
				return err
			}
		}
		_, err = fmt.Fprintln(w, text)
		return err

	default:
		return fmt.Errorf("unknown format %q (want text, json, xml, yaml or html)", opts.as)
	}
}

// decodeAny decodes JSON bodies and falls back to the XML tree.
func decodeAny(resp *restrequest.Response) (any, error) {
	v, jsonErr := resp.JSON(true)
	if jsonErr == nil {
		return v, nil
	}

	node, err := resp.XML()
	if err != nil {
		return nil, fmt.Errorf("body is neither JSON nor XML: %w", jsonErr)
	}
	return node, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeSummary prints a one line status summary.
func writeSummary(w io.Writer, resp *restrequest.Response) {
	size := uint64(len(resp.Bytes()))

	fmt.Fprintf(w, "< %s %s (%s)\n", resp.Proto(), resp.Status(), humanize.Bytes(size))

	if ct := resp.Header().Get("Content-Type"); ct != "" {
		fmt.Fprintf(w, "< Content-Type: %s\n", ct)
	}
}
