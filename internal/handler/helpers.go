package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kiez-net/kiez/internal/domain"
)

const defaultPage = 1

// parseIntParam parses an integer parameter and returns a meaningful error.
func parseIntParam(param string, paramName string) (int, error) {
	val, err := strconv.Atoi(param)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: must be an integer", paramName)
	}
	return val, nil
}

// pageParam reads ?page=, defaulting to the first page.
func pageParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("page")
	if raw == "" {
		return defaultPage, nil
	}
	return parseIntParam(raw, "page")
}

// parseInt64 parses an int64 query value and returns a meaningful error.
func parseInt64(param string, paramName string) (int64, error) {
	val, err := strconv.ParseInt(param, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: must be an integer", paramName)
	}
	return val, nil
}

// idParam reads a chi URL parameter as an int64 id.
func idParam(r *http.Request, name string) (int64, error) {
	val, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: must be an integer", name)
	}
	return val, nil
}

func slugParam(r *http.Request) domain.CommunitySlug {
	return chi.URLParam(r, "slug")
}
