package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/ypb/phonebook/internal/access"
	"github.com/ypb/phonebook/internal/activity"
	"github.com/ypb/phonebook/internal/page"
	"github.com/ypb/phonebook/internal/page/repository"
	"github.com/ypb/phonebook/internal/page/service"
	"gopkg.in/yaml.v3"
)

// pagesFile is the seed format:
//
//	pages:
//	  - title: מכולת
//	    html: "<p>08-6580000</p>"
//	    tags: [עסקים, ציבורי]
type pagesFile struct {
	Pages []struct {
		Title     string   `yaml:"title"`
		HTML      string   `yaml:"html"`
		Tags      []string `yaml:"tags"`
		OldName   string   `yaml:"oldName"`
		OldURL    string   `yaml:"oldUrl"`
		IsDeleted bool     `yaml:"isDeleted"`
	} `yaml:"pages"`
}

func loadPagesFile(path string) ([]*page.Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f pagesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	out := make([]*page.Page, 0, len(f.Pages))
	for i, p := range f.Pages {
		if p.Title == "" {
			return nil, fmt.Errorf("%s: page %d has no title", path, i+1)
		}
		out = append(out, &page.Page{
			Title:     p.Title,
			HTML:      p.HTML,
			Tags:      p.Tags,
			OldName:   p.OldName,
			OldURL:    p.OldURL,
			IsDeleted: p.IsDeleted,
		})
	}
	return out, nil
}

type importStats struct {
	Created, Updated, Unchanged int
}

// importPages saves every page through the page service so imported HTML is
// sanitised and history is kept. A page whose title already exists updates
// that page.
func importPages(ctx context.Context, repo repository.Repository, svc service.Service, pages []*page.Page) (importStats, error) {
	var st importStats
	importer := access.Caller{Role: access.System, Phone: "import"}
	for _, p := range pages {
		existing, err := repo.FindByTitle(ctx, p.Title, "")
		switch {
		case err == nil:
			p.ID = existing.ID
		case !errors.Is(err, repository.ErrNotFound):
			return st, err
		}
		res, err := svc.Save(ctx, importer, p)
		if err != nil {
			return st, fmt.Errorf("import %q: %w", p.Title, err)
		}
		switch res.Status {
		case service.Created:
			st.Created++
		case service.Updated:
			st.Updated++
		default:
			st.Unchanged++
		}
	}
	return st, nil
}

var importCmd = &cobra.Command{
	Use:   "import <pages.yaml>",
	Short: "Create or update pages from a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		pages, err := loadPagesFile(args[0])
		if err != nil {
			return err
		}
		a, err := openApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		svc := service.New(a.repo, a.cache, service.Options{
			Filter:   newEngine(cfg).Filter,
			Activity: activity.LogSink{},
		})
		st, err := importPages(ctx, a.repo, svc, pages)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d pages: %d created, %d updated, %d unchanged\n",
			len(pages), st.Created, st.Updated, st.Unchanged)
		return nil
	},
}
