package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	domainagg "github.com/yungbote/scd-backend/internal/domain/aggregates"
	"github.com/yungbote/scd-backend/internal/domain/catalog"
	"github.com/yungbote/scd-backend/internal/domain/scd"
	scdcore "github.com/yungbote/scd-backend/internal/modules/scd"
)

// addStore is the slice of the document store the add session needs.
type addStore interface {
	ReadCatalog(ctx context.Context) ([]*catalog.Requirement, error)
	ReadDocument(ctx context.Context, actor scdcore.Actor, id uuid.UUID) (*scd.Document, error)
	AddRequirements(ctx context.Context, actor scdcore.Actor, id uuid.UUID, reqIDs []uuid.UUID, expectedVersion *int) (*scd.Document, scdcore.AddResult, error)
}

func newAddCmd() *cobra.Command {
	var (
		as       string
		criteria scdcore.Criteria
	)
	cmd := &cobra.Command{
		Use:   "add <doc-id>",
		Short: "Pick catalog requirements to add to a document",
		Long: `Opens an interactive picker over the catalog requirements not yet in the document.

Commands: list, cat <a,b>, prod <a,b>, q <text>, <n> (toggle candidate n),
facets, done, quit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			docID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid document id: %w", err)
			}
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			actor, err := resolveActor(ctx, a, as)
			if err != nil {
				return err
			}
			s := &addSession{
				store: a.Services.SCD,
				actor: actor,
				docID: docID,
				in:    bufio.NewScanner(cmd.InOrStdin()),
				out:   cmd.OutOrStdout(),
				flow:  scdcore.NewAddFlow(),
			}
			return s.run(ctx, criteria)
		},
	}
	cmd.Flags().StringVar(&as, "as", defaultCLIActor, "Email of the acting user")
	cmd.Flags().StringSliceVar(&criteria.Categories, "category", nil, "Initial category filter")
	cmd.Flags().StringSliceVar(&criteria.Products, "product", nil, "Initial product filter")
	cmd.Flags().StringVar(&criteria.Text, "q", "", "Initial text filter")
	return cmd
}

type addSession struct {
	store addStore
	actor scdcore.Actor
	docID uuid.UUID
	in    *bufio.Scanner
	out   io.Writer
	flow  *scdcore.AddFlow
	doc   *scd.Document

	criteria scdcore.Criteria
}

func (s *addSession) run(ctx context.Context, initial scdcore.Criteria) error {
	if err := s.load(ctx); err != nil {
		return err
	}
	if len(initial.Categories)+len(initial.Products) > 0 || initial.Text != "" {
		if err := s.flow.SetCriteria(initial); err != nil {
			return err
		}
		s.criteria = initial
	}
	s.list()

	for {
		fmt.Fprint(s.out, "> ")
		if !s.in.Scan() {
			if err := s.in.Err(); err != nil {
				return err
			}
			return s.flow.Close()
		}
		line := strings.TrimSpace(s.in.Text())
		verb, rest, _ := strings.Cut(line, " ")
		rest = strings.TrimSpace(rest)

		switch verb {
		case "":
		case "list", "ls":
			s.list()
		case "cat":
			s.update(func(c *scdcore.Criteria) { c.Categories = splitArg(rest) })
		case "prod":
			s.update(func(c *scdcore.Criteria) { c.Products = splitArg(rest) })
		case "q":
			s.update(func(c *scdcore.Criteria) { c.Text = rest })
		case "facets":
			f := s.flow.Facets()
			fmt.Fprintf(s.out, "categories: %s\nproducts: %s\n", strings.Join(f.Categories, ", "), strings.Join(f.Products, ", "))
		case "done":
			finished, err := s.submit(ctx)
			if err != nil {
				return err
			}
			if finished {
				return nil
			}
		case "quit", "exit":
			return s.flow.Close()
		default:
			n, err := strconv.Atoi(verb)
			if err != nil {
				fmt.Fprintf(s.out, "unknown command %q\n", verb)
				continue
			}
			s.toggle(n)
		}
	}
}

func (s *addSession) load(ctx context.Context) error {
	if err := s.flow.Open(); err != nil {
		return err
	}
	reqs, err := s.store.ReadCatalog(ctx)
	if err == nil {
		s.doc, err = s.store.ReadDocument(ctx, s.actor, s.docID)
	}
	if err != nil {
		_ = s.flow.Fail(err)
		return err
	}
	return s.flow.Loaded(reqs, s.doc)
}

func (s *addSession) update(edit func(*scdcore.Criteria)) {
	next := s.criteria
	edit(&next)
	if err := s.flow.SetCriteria(next); err != nil {
		fmt.Fprintf(s.out, "filter rejected: %v\n", err)
		return
	}
	s.criteria = next
	s.list()
}

func (s *addSession) toggle(n int) {
	cands := s.flow.Candidates()
	if n < 1 || n > len(cands) {
		fmt.Fprintf(s.out, "no candidate %d\n", n)
		return
	}
	if err := s.flow.Toggle(cands[n-1].ID); err != nil {
		fmt.Fprintf(s.out, "%v\n", err)
		return
	}
	s.list()
}

// submit returns true once the selection is stored.
func (s *addSession) submit(ctx context.Context) (bool, error) {
	ids, err := s.flow.Submit()
	if err != nil {
		fmt.Fprintf(s.out, "%v\n", err)
		return false, nil
	}
	version := s.doc.Version
	doc, res, err := s.store.AddRequirements(ctx, s.actor, s.docID, ids, &version)
	if err != nil {
		if ferr := s.flow.Failed(err); ferr != nil {
			return false, ferr
		}
		fmt.Fprintf(s.out, "add failed: %v\n", err)
		if domainagg.IsCode(err, domainagg.CodeConflict) {
			if fresh, rerr := s.store.ReadDocument(ctx, s.actor, s.docID); rerr == nil {
				s.doc = fresh
				fmt.Fprintf(s.out, "document changed; now at version %d, run done to retry\n", fresh.Version)
			}
		}
		return false, nil
	}
	if err := s.flow.Succeeded(); err != nil {
		return false, err
	}
	s.doc = doc
	fmt.Fprintf(s.out, "added %d requirement(s), skipped %d; document now at version %d\n", res.Added, len(res.Skipped), doc.Version)
	return true, nil
}

func (s *addSession) list() {
	selected := map[uuid.UUID]bool{}
	for _, id := range s.flow.Selected() {
		selected[id] = true
	}
	cands := s.flow.Candidates()
	if len(cands) == 0 {
		fmt.Fprintln(s.out, "no candidates")
		return
	}
	for i, r := range cands {
		mark := " "
		if selected[r.ID] {
			mark = "x"
		}
		fmt.Fprintf(s.out, "[%s] %2d  %s | %s", mark, i+1, r.Category, r.Requirement)
		if r.Product != "" {
			fmt.Fprintf(s.out, " (%s)", r.Product)
		}
		fmt.Fprintln(s.out)
	}
}

func splitArg(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return catalog.ParseTags(raw)
}
