package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/deepspec/deepspec/internal/report"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// report serves the rendered literature matrix over all reviewed records.
// The rendered workbook is cached per store revision; any review commit
// invalidates it.
func (s *Service) report(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rev := s.store.Revision()
	if !s.reportOK || s.reportRev != rev {
		docs := s.store.Reviewed()
		rows := make([]report.Row, 0, len(docs))
		for _, doc := range docs {
			row := report.Row{Figure: doc.SelectedFigure}
			if doc.Fields != nil {
				row.Fields = *doc.Fields
			}
			rows = append(rows, row)
		}

		data, err := s.assembler.Assemble(rows)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		s.reportCache = data
		s.reportRev = rev
		s.reportOK = true
		reportsGenerated.Inc()
		s.logger.Info("server.report.built", "revision", rev, "rows", len(rows), "bytes", len(data))
	}

	name := fmt.Sprintf("literature-matrix-%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, xlsxContentType, s.reportCache)
}
