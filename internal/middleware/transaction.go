package middleware

import (
	"bytes"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// TxKey is where the request transaction lives in the gin context.
const TxKey = "db_tx"

// Transaction begins one transaction per request before any handler runs and
// ends it based on the outcome: commit when the response is a success,
// rollback on any error response or panic. Handler output is buffered and
// flushed only after the transaction ended, so a failed commit reaches the
// client as a server error instead of a success whose work was lost. gorm
// returns the connection to the pool on both Commit and Rollback, including
// when they fail.
func Transaction(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		tx := db.Begin()
		if tx.Error != nil {
			log.Printf("Failed to begin transaction: %v", tx.Error)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		c.Set(TxKey, tx)

		buffered := &bufferedWriter{ResponseWriter: c.Writer}
		c.Writer = buffered

		defer func() {
			if r := recover(); r != nil {
				tx.Rollback()
				c.Writer = buffered.ResponseWriter
				panic(r)
			}
		}()

		c.Next()

		c.Writer = buffered.ResponseWriter

		if len(c.Errors) > 0 || buffered.Status() >= http.StatusBadRequest {
			if err := tx.Rollback().Error; err != nil {
				c.Error(err)
				log.Printf("Failed to rollback transaction: %v", err)
			}
			buffered.flush()
			return
		}

		if err := tx.Commit().Error; err != nil {
			c.Error(err)
			log.Printf("Failed to commit transaction: %v", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		buffered.flush()
	}
}

// Tx returns the current request's transaction.
func Tx(c *gin.Context) *gorm.DB {
	return c.MustGet(TxKey).(*gorm.DB)
}

// bufferedWriter holds back the status and body until the transaction outcome
// is known. Headers pass through to the underlying writer untouched; they are
// sent when the buffered status is flushed.
type bufferedWriter struct {
	gin.ResponseWriter
	status int
	body   bytes.Buffer
}

func (w *bufferedWriter) WriteHeader(code int) {
	w.status = code
}

// WriteHeaderNow is deferred until flush.
func (w *bufferedWriter) WriteHeaderNow() {}

func (w *bufferedWriter) Write(data []byte) (int, error) {
	return w.body.Write(data)
}

func (w *bufferedWriter) WriteString(s string) (int, error) {
	return w.body.WriteString(s)
}

func (w *bufferedWriter) Status() int {
	if w.status == 0 {
		return w.ResponseWriter.Status()
	}
	return w.status
}

func (w *bufferedWriter) Size() int {
	return w.body.Len()
}

func (w *bufferedWriter) Written() bool {
	return w.status != 0 || w.body.Len() > 0
}

func (w *bufferedWriter) flush() {
	if w.status != 0 {
		w.ResponseWriter.WriteHeader(w.status)
	}
	if w.body.Len() > 0 {
		if _, err := w.ResponseWriter.Write(w.body.Bytes()); err != nil {
			log.Printf("Failed to write buffered response: %v", err)
		}
	}
}
