// Package response renders the success envelope shared by every JSON
// endpoint. Errors use the matching {"success": false, "error": ...} body
// written by the central error handler.
package response

import "github.com/labstack/echo/v4"

type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

// JSON writes {"success": true, "data": data}.
func JSON(c echo.Context, code int, data interface{}) error {
	return c.JSON(code, Envelope{Success: true, Data: data})
}
