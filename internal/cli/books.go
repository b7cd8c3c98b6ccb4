package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/mrlokans/booklet/internal/entities"
	"github.com/mrlokans/booklet/internal/entrypoint"
)

func booksCommand() *cli.Command {
	return &cli.Command{
		Name:  "books",
		Usage: "manage the catalogue",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list books with their reading state",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "q", Usage: "only books whose title or author contains this"},
				},
				Action: func(c *cli.Context) error {
					return withApp(c, func(app *entrypoint.App) error {
						var (
							books []entities.Book
							err   error
						)
						if q := c.String("q"); q != "" {
							books, err = app.Books.SearchBooks(q)
						} else {
							books, err = app.Books.ListBooks()
						}
						if err != nil {
							return describe(err)
						}
						return printBooks(c.App.Writer, books, func(b entities.Book) string {
							loc, err := app.Engine.LocationOf(b.ID)
							if err != nil {
								return "?"
							}
							return string(loc)
						})
					})
				},
			},
			{
				Name:  "unassigned",
				Usage: "list books that are on no reading list",
				Action: func(c *cli.Context) error {
					return withApp(c, func(app *entrypoint.App) error {
						books, err := app.Engine.LibraryBooks()
						if err != nil {
							return describe(err)
						}
						return printBooks(c.App.Writer, books, func(entities.Book) string {
							return string(entities.LocationLibrary)
						})
					})
				},
			},
			{
				Name:  "add",
				Usage: "add a book to the library",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Required: true},
					&cli.StringFlag{Name: "author", Required: true},
					&cli.IntFlag{Name: "pages", Usage: "page count", Required: true},
					&cli.StringFlag{Name: "series"},
					&cli.Float64Flag{Name: "series-number", Usage: "position in the series, 2.5 for in-between novellas"},
					&cli.StringFlag{Name: "genre"},
					&cli.StringFlag{Name: "cover-url"},
					&cli.StringFlag{Name: "synopsis"},
				},
				Action: func(c *cli.Context) error {
					book := entities.Book{
						Title:     c.String("title"),
						Author:    c.String("author"),
						PageCount: c.Int("pages"),
						Series:    optionalString(c, "series"),
						Genre:     optionalString(c, "genre"),
						CoverURL:  optionalString(c, "cover-url"),
						Synopsis:  optionalString(c, "synopsis"),
					}
					if c.IsSet("series-number") {
						n := c.Float64("series-number")
						book.SeriesNumber = &n
					}

					return withApp(c, func(app *entrypoint.App) error {
						id, err := app.Books.CreateBook(&book)
						if err != nil {
							return describe(err)
						}
						fmt.Fprintf(c.App.Writer, "Added book %d: %s by %s\n", id, book.Title, book.Author)
						return nil
					})
				},
			},
		},
	}
}

func optionalString(c *cli.Context, name string) *string {
	if !c.IsSet(name) {
		return nil
	}
	return entities.StringPtr(c.String(name))
}

func printBooks(out io.Writer, books []entities.Book, location func(entities.Book) string) error {
	if len(books) == 0 {
		fmt.Fprintln(out, "No books")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tAUTHOR\tPAGES\tLOCATION")
	for _, b := range books {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", b.ID, b.Title, b.Author, b.PageCount, location(b))
	}
	return w.Flush()
}
