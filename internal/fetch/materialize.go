// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/docsync/pkg/types"
)

// Summary counts the outcomes of one materialization pass.
type Summary struct {
	Saved  int
	Failed int
}

// Total returns the number of articles processed.
func (s Summary) Total() int {
	return s.Saved + s.Failed
}

// Materialize replaces the snapshot directory with one <slug>.md file
// per article, each carrying YAML frontmatter and a title heading.
// Artifacts whose titles slugify to the same name get -2, -3, ...
// suffixes in arrival order, so every artifact name in the snapshot is
// unique. A failed article is reported on w and skipped; the rest still
// materialize.
func Materialize(articles []types.Article, dir string, w io.Writer) ([]types.Artifact, Summary, error) {
	// Wipe leftovers from a previous run so the snapshot holds exactly
	// this run's articles.
	if err := os.RemoveAll(dir); err != nil {
		return nil, Summary{}, fmt.Errorf("clearing snapshot directory %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, Summary{}, fmt.Errorf("creating snapshot directory %s: %w", dir, err)
	}

	var artifacts []types.Artifact
	var summary Summary
	used := make(map[string]bool)

	for i, article := range articles {
		fmt.Fprintf(w, "[%d/%d] %s\n", i+1, len(articles), article.Title)

		body, err := ToMarkdown(article.BodyHTML)
		if err != nil {
			fmt.Fprintf(w, "       failed: %v\n", err)
			summary.Failed++
			continue
		}

		content, err := render(article, body)
		if err != nil {
			fmt.Fprintf(w, "       failed: %v\n", err)
			summary.Failed++
			continue
		}

		name := artifactName(article, used)
		used[name] = true

		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, content, 0o644); err != nil {
			fmt.Fprintf(w, "       failed: %v\n", err)
			summary.Failed++
			continue
		}

		fmt.Fprintf(w, "       saved %s\n", name)
		artifacts = append(artifacts, types.Artifact{Name: name, Path: path})
		summary.Saved++
	}

	fmt.Fprintf(w, "\nsaved: %d, failed: %d\n", summary.Saved, summary.Failed)
	return artifacts, summary, nil
}

// artifactName derives a unique snapshot file name for the article.
func artifactName(article types.Article, used map[string]bool) string {
	slug := Slugify(article.Title)
	if slug == "" {
		slug = fmt.Sprintf("article-%d", article.ID)
	}
	name := slug + ".md"
	for n := 2; used[name]; n++ {
		name = fmt.Sprintf("%s-%d.md", slug, n)
	}
	return name
}

// frontmatter is the YAML metadata block at the top of every artifact.
type frontmatter struct {
	Title     string `yaml:"title"`
	ArticleID int64  `yaml:"article_id"`
	URL       string `yaml:"url"`
	CreatedAt string `yaml:"created_at"`
	UpdatedAt string `yaml:"updated_at"`
}

func render(article types.Article, body string) ([]byte, error) {
	meta, err := yaml.Marshal(frontmatter{
		Title:     article.Title,
		ArticleID: article.ID,
		URL:       article.URL,
		CreatedAt: article.CreatedAt,
		UpdatedAt: article.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling frontmatter: %w", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(meta)
	b.WriteString("---\n\n# ")
	b.WriteString(article.Title)
	b.WriteString("\n")
	if body != "" {
		b.WriteString("\n")
		b.WriteString(body)
		b.WriteString("\n")
	}
	return []byte(b.String()), nil
}
