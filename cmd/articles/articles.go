// Package articles implements commands that browse stored articles.
package articles

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	cmdcommon "github.com/jansonh/detiknews-crawler/cmd/common"
	"github.com/jansonh/detiknews-crawler/internal/config"
	"github.com/jansonh/detiknews-crawler/internal/content/article"
	"github.com/jansonh/detiknews-crawler/internal/storage"
)

const titleWidth = 60

// Command returns the articles command group.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "articles",
		Short: "Browse stored articles",
	}
	cmd.AddCommand(listCommand())
	return cmd
}

func listCommand() *cobra.Command {
	var (
		limit  int
		offset int
		from   string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the most recently crawled articles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := cmdcommon.NewCommandDeps()
			if err != nil {
				return fmt.Errorf("failed to initialize dependencies: %w", err)
			}

			reader, closeFn, err := openReader(cmd.Context(), deps, from)
			if err != nil {
				return err
			}
			defer closeFn()

			records, err := reader.List(cmd.Context(), limit, offset)
			if err != nil {
				return err
			}
			RenderTable(os.Stdout, records)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "number of articles to show")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of articles to skip")
	cmd.Flags().StringVar(&from, "from", config.SinkPostgres, "store to read from: postgres or elasticsearch")

	return cmd
}

func openReader(ctx context.Context, deps cmdcommon.CommandDeps, from string) (storage.Reader, func(), error) {
	switch from {
	case config.SinkPostgres:
		if err := deps.Config.Database.Validate(); err != nil {
			return nil, nil, fmt.Errorf("database: %w", err)
		}
		repo, db, err := cmdcommon.NewArticleRepository(ctx, deps)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() { _ = db.Close() }, nil
	case config.SinkElasticsearch:
		if err := deps.Config.Elasticsearch.Validate(); err != nil {
			return nil, nil, fmt.Errorf("elasticsearch: %w", err)
		}
		sink, err := cmdcommon.NewElasticsearchSink(ctx, deps)
		if err != nil {
			return nil, nil, err
		}
		return sink, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown store %q", cmdcommon.ErrNoReader, from)
	}
}

// RenderTable writes records to w as a table.
func RenderTable(w io.Writer, records []*article.Record) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Crawled", "Published", "Title", "Author", "Pages", "URL"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Title", WidthMax: titleWidth},
		{Name: "Pages", Align: text.AlignRight},
	})

	for _, rec := range records {
		t.AppendRow(table.Row{
			rec.CrawledAt.Local().Format(time.DateTime),
			rec.PublishedAt,
			rec.Title,
			rec.Author,
			rec.Pages,
			rec.SourceURL,
		})
	}
	t.AppendFooter(table.Row{"", "", "", "Total", len(records), ""})
	t.Render()
}
