// Command generate_demo creates a demo database with public domain books and
// a few authored chapters, for read-only demo instances (DEMO_READ_ONLY).
// Usage: go run cmd/generate_demo/main.go [-db path/to/demo.db]
package main

import (
	"flag"
	"os"

	"go.uber.org/zap"

	"github.com/mrlokans/chapterdesk/internal/database"
	"github.com/mrlokans/chapterdesk/internal/database/books"
	"github.com/mrlokans/chapterdesk/internal/database/chapters"
	"github.com/mrlokans/chapterdesk/internal/editor"
	"github.com/mrlokans/chapterdesk/internal/entities"
	"github.com/mrlokans/chapterdesk/internal/logging"
)

const defaultDemoDatabasePath = "./demo/demo.db"

type demoChapter struct {
	Number int
	Title  string
	Body   string
}

type demoBook struct {
	Book     entities.Book
	Chapters []demoChapter
}

func main() {
	dbPath := flag.String("db", defaultDemoDatabasePath, "path to the demo database file")
	flag.Parse()

	log, err := logging.New("normal")
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Generating demo database", zap.String("path", *dbPath))

	// Start fresh
	if err := os.Remove(*dbPath); err != nil && !os.IsNotExist(err) {
		log.Fatal("Failed to remove existing demo database", zap.Error(err))
	}

	db, err := database.NewDatabase(*dbPath, log)
	if err != nil {
		log.Fatal("Failed to create database", zap.Error(err))
	}
	defer db.Close()

	editor.RegisterPlugins()
	bookRepo := books.NewRepository(db.DB)
	chapterRepo := chapters.NewRepository(db.DB)

	for _, cfg := range publicDomainBooks() {
		book := cfg.Book
		if err := bookRepo.CreateBook(&book); err != nil {
			log.Error("Failed to save book", zap.String("title", book.Title), zap.Error(err))
			continue
		}

		for _, ch := range cfg.Chapters {
			number := ch.Number
			chapter := &entities.Chapter{
				BookID:        book.ID,
				ChapterNumber: &number,
				ChapterTitle:  ch.Title,
				ContentType:   entities.ContentTypeEditor,
				Content:       editor.Sanitize(ch.Body),
			}
			if err := chapterRepo.CreateChapter(chapter); err != nil {
				log.Error("Failed to save chapter", zap.String("book", book.Title), zap.String("chapter", ch.Title), zap.Error(err))
			}
		}
		log.Info("Saved book", zap.String("title", book.Title), zap.Int("chapters", len(cfg.Chapters)))
	}

	log.Info("Demo database generated successfully")
}

func publicDomainBooks() []demoBook {
	return []demoBook{
		{
			Book: entities.Book{
				Title:       "Meditations",
				Author:      "Marcus Aurelius",
				Description: "Private notes of a Roman emperor.",
			},
			Chapters: []demoChapter{
				{
					Number: 1,
					Title:  "Debts and Lessons",
					Body: `<h2>Book One</h2>
<p>From my grandfather Verus I learned <em>good morals</em> and the government of my temper.</p>
<p>From the reputation and remembrance of my father, <strong>modesty and a manly character</strong>.</p>`,
				},
				{
					Number: 2,
					Title:  "On the River Gran",
					Body: `<p>Begin the morning by saying to thyself, I shall meet with the busy-body, the ungrateful, arrogant, deceitful, envious, unsocial.</p>
<blockquote><p>Do every act of thy life as if it were the last.</p></blockquote>`,
				},
			},
		},
		{
			Book: entities.Book{
				Title:       "The Elements of Style",
				Author:      "William Strunk Jr.",
				Description: "A short guide to clear English prose.",
			},
			Chapters: []demoChapter{
				{
					Number: 1,
					Title:  "Elementary Rules of Usage",
					Body: `<ol>
<li>Form the possessive singular of nouns by adding <code>'s</code>.</li>
<li>In a series of three or more terms with a single conjunction, use a comma after each term except the last.</li>
<li>Enclose parenthetic expressions between commas.</li>
</ol>`,
				},
				{
					Number: 2,
					Title:  "Elementary Principles of Composition",
					Body: `<p><strong>Omit needless words.</strong> Vigorous writing is concise.</p>
<table><tr><th>Instead of</th><th>Write</th></tr><tr><td>the question as to whether</td><td>whether</td></tr><tr><td>there is no doubt but that</td><td>no doubt</td></tr></table>`,
				},
			},
		},
		{
			Book: entities.Book{
				Title:       "The Left Hand of Darkness",
				Author:      "Ursula K. Le Guin",
				Description: "An envoy visits the ice world of Gethen.",
			},
		},
	}
}
