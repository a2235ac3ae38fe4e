package interfaces

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"application-intake/domain"
)

var csvHeader = []string{
	"ID", "Name", "Email", "Phone", "Age", "Qualification",
	"Graduation Year", "Location", "Video Filename", "Uploaded At",
}

// utf8BOM lets spreadsheet tools detect the encoding.
const utf8BOM = "\xEF\xBB\xBF"

// filterQuery reads an admin filter. The filter_ prefixed keys of the old
// admin page are accepted too.
func filterQuery(c *gin.Context, key string) string {
	if v := c.Query(key); v != "" {
		return v
	}
	return c.Query("filter_" + key)
}

func parseFilter(c *gin.Context) (domain.ApplicationFilter, error) {
	f := domain.ApplicationFilter{
		Search:   domain.Sanitize(c.Query("search")),
		Name:     domain.Sanitize(filterQuery(c, "name")),
		Email:    domain.Sanitize(filterQuery(c, "email")),
		Phone:    domain.Sanitize(filterQuery(c, "phone")),
		Location: domain.Sanitize(filterQuery(c, "location")),
	}
	if raw := filterQuery(c, "date"); raw != "" {
		d, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return f, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", raw)
		}
		f.Date = &d
	}
	return f, nil
}

// ListApplications returns the applications matching the query filters.
func (h *HTTPHandler) ListApplications(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	apps, total, err := h.store.ListApplications(c.Request.Context(), filter)
	if err != nil {
		h.log.WithError(err).Error("Failed to list applications")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list applications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":        total,
		"applications": apps,
	})
}

// ExportApplications streams the matching applications as CSV.
func (h *HTTPHandler) ExportApplications(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	apps, _, err := h.store.ListApplications(c.Request.Context(), filter)
	if err != nil {
		h.log.WithError(err).Error("Failed to export applications")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to export applications"})
		return
	}

	filename := fmt.Sprintf("submissions_%s.csv", time.Now().Format("2006-01-02_15-04-05"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Header("Cache-Control", "no-cache")
	c.Status(http.StatusOK)

	if _, err := c.Writer.WriteString(utf8BOM); err != nil {
		h.log.WithError(err).Warn("Failed to write CSV export")
		return
	}

	w := csv.NewWriter(c.Writer)
	_ = w.Write(csvHeader)
	for _, app := range apps {
		email := ""
		if app.Email != nil {
			email = *app.Email
		}
		_ = w.Write([]string{
			strconv.FormatUint(uint64(app.ID), 10),
			app.Name,
			email,
			app.Phone,
			strconv.Itoa(app.Age),
			app.Qualification,
			strconv.Itoa(app.GraduationYear),
			app.Location,
			app.VideoFilename,
			app.UploadedAt.Format(time.DateTime),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		h.log.WithError(err).Warn("Failed to write CSV export")
	}
}

// DownloadVideo serves a stored video by its generated name.
func (h *HTTPHandler) DownloadVideo(c *gin.Context) {
	path, err := h.videos.Path(c.Param("filename"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "video not found"})
		return
	}
	c.File(path)
}
