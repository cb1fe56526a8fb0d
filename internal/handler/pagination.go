package handler

import (
	"strconv"

	"github.com/Baaaki/yamdb/internal/apperrors"
	"github.com/Baaaki/yamdb/internal/repository"

	"github.com/gin-gonic/gin"
)

const (
	maxPageSize = 100
	// Bounds the row offset so it cannot overflow.
	maxPage = 1_000_000
)

// Paginated is the envelope of every list endpoint.
type Paginated[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

type pager struct {
	defaultSize int
}

func (p pager) parse(c *gin.Context) (repository.Page, error) {
	page := repository.Page{Number: 1, Size: p.defaultSize}

	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxPage {
			return page, apperrors.NotFound("Page")
		}
		page.Number = n
	}
	if raw := c.Query("page_size"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			page.Size = min(n, maxPageSize)
		}
	}
	return page, nil
}

// paginate builds the envelope. A page past the end, other than the first, is a 404.
func paginate[M any, T any](c *gin.Context, page repository.Page, count int64, items []M, convert func(*M) T) (Paginated[T], error) {
	if page.Number > 1 && int64(page.Offset()) >= count {
		return Paginated[T]{}, apperrors.NotFound("Page")
	}

	results := make([]T, len(items))
	for i := range items {
		results[i] = convert(&items[i])
	}

	out := Paginated[T]{Count: count, Results: results}
	if int64(page.Offset()+len(items)) < count {
		out.Next = pageLink(c, page.Number+1)
	}
	if page.Number > 1 {
		out.Previous = pageLink(c, page.Number-1)
	}
	return out, nil
}

func pageLink(c *gin.Context, number int) *string {
	u := *c.Request.URL
	q := u.Query()
	if number == 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(number))
	}
	u.RawQuery = q.Encode()
	link := u.RequestURI()
	return &link
}
