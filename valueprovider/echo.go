// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: © 2017 LabStack and Echo contributors

package valueprovider

import (
	"github.com/labstack/echo/v4"
)

// Query returns a Store over the request query string.
func Query(c echo.Context) *Store {
	return New(c.QueryParams())
}

// Form returns a Store over the url-encoded or multipart form body.
// Reading the body may fail, in which case the error is returned as is.
func Form(c echo.Context) (*Store, error) {
	if _, err := c.FormParams(); err != nil {
		return nil, err
	}
	// FormParams merges the query string into Form; PostForm holds the body alone.
	return New(c.Request().PostForm), nil
}

// QueryAndForm returns a provider that consults the form body first and then the query string.
// Requests without a body yield a query-only provider.
func QueryAndForm(c echo.Context) (ValueProvider, error) {
	req := c.Request()
	if req.ContentLength == 0 && req.Header.Get(echo.HeaderContentType) == "" {
		return Composite{Query(c)}, nil
	}
	form, err := Form(c)
	if err != nil {
		return nil, err
	}
	return Composite{form, Query(c)}, nil
}
