package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/gisdesk/ticket-agent/internal/models"
	"github.com/gisdesk/ticket-agent/internal/normalize"
)

// loadTickets reads an XML export or a JSON object/array. Records that
// cannot become tickets are counted as skipped.
func loadTickets(path string) ([]models.Ticket, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("read %s: %w", path, err)
	}
	if isXML(path, data) {
		batch, err := normalize.ParseXML(bytes.NewReader(data))
		if err != nil {
			return nil, 0, err
		}
		return batch.Tickets, batch.Skipped, nil
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, 0, &normalize.ParseError{Err: err}
		}
		var (
			tickets []models.Ticket
			skipped int
		)
		for _, item := range items {
			t, err := normalize.FromJSON(item)
			if err != nil {
				skipped++
				continue
			}
			tickets = append(tickets, t)
		}
		return tickets, skipped, nil
	}

	t, err := normalize.FromJSON(data)
	if errors.Is(err, normalize.ErrSkipped) {
		return nil, 1, nil
	}
	if err != nil {
		return nil, 0, err
	}
	return []models.Ticket{t}, 0, nil
}

func isXML(path string, data []byte) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml":
		return true
	case ".json":
		return false
	}
	return bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n\ufeff"), []byte("<"))
}

// writeOutput renders v as indented JSON or as block-style YAML with the
// JSON key order kept.
func writeOutput(w io.Writer, format string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	switch strings.ToLower(format) {
	case "", "json":
		_, err = fmt.Fprintln(w, string(b))
		return err
	case "yaml", "yml":
		var node yaml.Node
		if err := yaml.Unmarshal(b, &node); err != nil {
			return err
		}
		blockStyle(&node)
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(&node); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown output format %q (want json or yaml)", format)
}

func blockStyle(n *yaml.Node) {
	if n.Kind == yaml.MappingNode || n.Kind == yaml.SequenceNode {
		n.Style = 0
	}
	if n.Kind == yaml.ScalarNode && n.Tag == "!!str" {
		n.Style = 0
		if strings.Contains(n.Value, "\n") {
			n.Style = yaml.LiteralStyle
		}
	}
	for _, c := range n.Content {
		blockStyle(c)
	}
}
