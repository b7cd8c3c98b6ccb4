package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/booklet/internal/entities"
)

type BooksController struct {
	store   BookStore
	locator BookLocator
}

func NewBooksController(store BookStore, locator BookLocator) *BooksController {
	return &BooksController{
		store:   store,
		locator: locator,
	}
}

// ListBooks returns the whole catalogue, or the books matching ?q= on
// title or author.
func (controller *BooksController) ListBooks(c *gin.Context) {
	var (
		books []entities.Book
		err   error
	)
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		books, err = controller.store.SearchBooks(q)
	} else {
		books, err = controller.store.ListBooks()
	}
	if err != nil {
		respondDomainError(c, err, "books")
		return
	}
	c.JSON(http.StatusOK, gin.H{"books": books, "count": len(books)})
}

// LibraryBooks returns the books that are on no reading list.
func (controller *BooksController) LibraryBooks(c *gin.Context) {
	books, err := controller.locator.LibraryBooks()
	if err != nil {
		respondDomainError(c, err, "books")
		return
	}
	c.JSON(http.StatusOK, gin.H{"books": books, "count": len(books)})
}

func (controller *BooksController) GetBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	book, err := controller.store.GetBook(id)
	if err != nil {
		respondDomainError(c, err, "book")
		return
	}
	c.JSON(http.StatusOK, book)
}

func (controller *BooksController) CreateBook(c *gin.Context) {
	var book entities.Book
	if !bindJSON(c, &book) {
		return
	}
	id, err := controller.store.CreateBook(&book)
	if err != nil {
		respondDomainError(c, err, "book")
		return
	}
	created, err := controller.store.GetBook(id)
	if err != nil {
		respondDomainError(c, err, "book")
		return
	}
	respondCreated(c, created)
}

// UpdateBook replaces every editable field. Omitted optional fields are
// cleared.
func (controller *BooksController) UpdateBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var book entities.Book
	if !bindJSON(c, &book) {
		return
	}
	if err := controller.store.UpdateBook(id, &book); err != nil {
		respondDomainError(c, err, "book")
		return
	}
	updated, err := controller.store.GetBook(id)
	if err != nil {
		respondDomainError(c, err, "book")
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteBook removes the book together with its reading history.
func (controller *BooksController) DeleteBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := controller.store.DeleteBook(id); err != nil {
		respondDomainError(c, err, "book")
		return
	}
	respondDeleted(c, "book and its reading history deleted")
}

func (controller *BooksController) Location(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	loc, err := controller.locator.LocationOf(id)
	if err != nil {
		respondDomainError(c, err, "book")
		return
	}
	c.JSON(http.StatusOK, gin.H{"book_id": id, "location": loc})
}

// StartTracking moves a library book onto the tracking list.
func (controller *BooksController) StartTracking(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	entry, err := controller.locator.StartTracking(id)
	if err != nil {
		respondDomainError(c, err, "book")
		return
	}
	respondCreated(c, newTrackingView(*entry))
}
