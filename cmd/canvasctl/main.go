package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/ettle/strcase"
	"gopkg.in/yaml.v3"

	canvas "github.com/goliatone/go-canvas/components/canvas"
	"github.com/goliatone/go-canvas/components/canvas/stores/sqlitestore"
)

type cli struct {
	Catalog catalogCmd `cmd:"" help:"Print or validate the widget catalog."`
	Inspect inspectCmd `cmd:"" help:"Print a user's saved layout from a SQLite store."`
	Export  exportCmd  `cmd:"" help:"Render a saved layout file to a standalone HTML or PNG export."`
}

func main() {
	ctx := kong.Parse(&cli{},
		kong.Description("Offline tooling for go-canvas layouts and catalogs."),
		kong.UsageOnError(),
	)
	err := ctx.Run(context.Background())
	ctx.FatalIfErrorf(err)
}

type catalogCmd struct {
	Path   string `type:"path" help:"Catalog YAML/JSON to validate (defaults to the built-in catalog)."`
	Format string `enum:"yaml,json" default:"yaml" help:"Output format."`
}

func (cmd *catalogCmd) Run(_ context.Context) error {
	return cmd.run(os.Stdout)
}

func (cmd *catalogCmd) run(out io.Writer) error {
	cat := canvas.DefaultCatalog()
	if cmd.Path != "" {
		var err error
		if cat, err = canvas.ReadCatalog(cmd.Path); err != nil {
			return err
		}
	}
	if err := cat.Validate(); err != nil {
		return fmt.Errorf("canvasctl: %w", err)
	}
	if cmd.Format == "json" {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(cat)
	}
	return canvas.EncodeCatalog(out, cat)
}

type inspectCmd struct {
	Database string `required:"" type:"path" help:"SQLite layout database."`
	User     string `required:"" help:"User id whose layout to print."`
}

func (cmd *inspectCmd) Run(ctx context.Context) error {
	return cmd.run(ctx, os.Stdout)
}

func (cmd *inspectCmd) run(ctx context.Context, out io.Writer) error {
	store, err := sqlitestore.Open(cmd.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	raw, ok, err := store.Get(ctx, canvas.LayoutKey(cmd.User))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("canvasctl: no saved layout for %s", cmd.User)
	}
	widgets, err := canvas.NewPersister(store, nil, nil).DecodeLayout(raw)
	if err != nil {
		return err
	}
	return writeYAML(out, layoutSummary(cmd.User, widgets))
}

type widgetSummary struct {
	InstanceID string  `yaml:"instance_id"`
	Kind       string  `yaml:"kind"`
	Title      string  `yaml:"title,omitempty"`
	X          float64 `yaml:"x"`
	Y          float64 `yaml:"y"`
	Width      float64 `yaml:"width"`
	Height     float64 `yaml:"height"`
}

type layoutDocument struct {
	User    string          `yaml:"user"`
	Count   int             `yaml:"count"`
	Widgets []widgetSummary `yaml:"widgets"`
}

func layoutSummary(user string, widgets []canvas.Widget) layoutDocument {
	doc := layoutDocument{User: user, Count: len(widgets), Widgets: make([]widgetSummary, len(widgets))}
	for i, w := range widgets {
		summary := widgetSummary{
			InstanceID: w.InstanceID,
			Kind:       string(w.Kind),
			X:          w.Position.X,
			Y:          w.Position.Y,
			Width:      w.Size.Width,
			Height:     w.Size.Height,
		}
		if w.Chart != nil {
			summary.Title = w.Chart.Name
		}
		doc.Widgets[i] = summary
	}
	return doc
}

type exportCmd struct {
	Layout string  `required:"" type:"existingfile" help:"Layout JSON document (as saved by the canvas)."`
	Title  string  `default:"Dashboard" help:"Document title; also used to derive the output file name."`
	Format string  `enum:"html,png" default:"html" help:"Export format."`
	Out    string  `type:"path" help:"Output file (defaults to <kebab-title>.<format> in the current directory)."`
	Width  float64 `default:"1200" help:"Surface width in pixels."`
	Height float64 `default:"800" help:"Surface height in pixels."`
}

func (cmd *exportCmd) Run(ctx context.Context) error {
	path, err := cmd.run(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "✓ Exported %s\n", path)
	return nil
}

func (cmd *exportCmd) run(ctx context.Context) (string, error) {
	raw, err := os.ReadFile(cmd.Layout)
	if err != nil {
		return "", fmt.Errorf("canvasctl: read layout: %w", err)
	}
	widgets, err := canvas.NewPersister(canvas.NewMemoryStore(), nil, nil).DecodeLayout(raw)
	if err != nil {
		return "", err
	}
	exporter, err := canvas.NewExporter(canvas.ExporterOptions{})
	if err != nil {
		return "", err
	}
	input := canvas.ExportInput{
		Title:      cmd.Title,
		Widgets:    widgets,
		Bounds:     canvas.Bounds{Width: cmd.Width, Height: cmd.Height},
		Background: canvas.Background{Kind: canvas.BackgroundPreset, Preset: canvas.DefaultBackground},
	}
	var artifact *canvas.Artifact
	if cmd.Format == "png" {
		artifact, err = exporter.Image(ctx, input)
	} else {
		artifact, err = exporter.Document(ctx, input)
	}
	if err != nil {
		return "", err
	}
	out := cmd.Out
	if out == "" {
		out = outputName(cmd.Title, cmd.Format)
	}
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("canvasctl: mkdir %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(out, artifact.Data, 0o644); err != nil { //nolint:gosec
		return "", fmt.Errorf("canvasctl: write export: %w", err)
	}
	return out, nil
}

func outputName(title, format string) string {
	slug := strcase.ToKebab(strings.TrimSpace(title))
	if slug == "" {
		slug = "dashboard"
	}
	return slug + "." + format
}

func writeYAML(out io.Writer, v any) error {
	encoder := yaml.NewEncoder(out)
	encoder.SetIndent(2)
	defer encoder.Close()
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("canvasctl: encode yaml: %w", err)
	}
	return nil
}
