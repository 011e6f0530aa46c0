package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/vancomm/dungeon-sweeper/internal/repository"
)

var errBadLimit = errors.New("limit must be within 1..100")

type RecordStore interface {
	GetRecords(ctx context.Context, options ...repository.RecordsOption) ([]repository.Record, error)
}

type Records struct {
	log   logrus.FieldLogger
	store RecordStore
}

func NewRecords(log logrus.FieldLogger, store RecordStore) *Records {
	return &Records{log: log, store: store}
}

func (h *Records) List(w http.ResponseWriter, r *http.Request) {
	var q RecordsQuery
	if err := decoder.Decode(&q, r.URL.Query()); err != nil {
		sendError(w, h.log, http.StatusBadRequest, err)
		return
	}
	if q.Limit < 0 || q.Limit > 100 {
		sendError(w, h.log, http.StatusBadRequest, errBadLimit)
		return
	}
	var options []repository.RecordsOption
	if q.Username != "" {
		options = append(options, repository.RecordsForPlayer(q.Username))
	}
	if q.Limit != 0 {
		options = append(options, repository.RecordsLimit(q.Limit))
	}

	records, err := h.store.GetRecords(r.Context(), options...)
	if err != nil {
		h.log.WithError(err).Error("unable to get records")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []repository.Record{}
	}
	sendJSONOrLog(w, h.log, records)
}
