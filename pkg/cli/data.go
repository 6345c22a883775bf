package cli

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"github.com/mchmarny/vitalrisk/pkg/data"
	"github.com/mchmarny/vitalrisk/pkg/risk"
)

const (
	requestBodyMaxBytes = 1 << 16
	batchSizeMax        = 500

	streamSizeDefault = 10
	streamSizeMax     = 100
	streamInterval    = 5 * time.Second

	listLimitMax = 1000
)

// StreamPoint is one simulated reading in the live feed.
type StreamPoint struct {
	Time     string `json:"time" yaml:"time"`
	risk.Row `yaml:",inline"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, requestBodyMaxBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

// predictAPIHandler scores one observation and records it.
func predictAPIHandler(scorer *risk.Scorer, db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req predictRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		obs, err := req.observation()
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		res, err := scoreAndRecord(scorer, db, obs, data.SourceAPI)
		if err != nil {
			slog.Error("failed to score observation", "error", err)
			writeError(w, scoringErrorStatus(err), "failed to score observation")
			return
		}

		writeJSON(w, http.StatusOK, res)
	}
}

// batchPredictAPIHandler scores a list of observations and records them in
// one transaction. Any invalid item rejects the whole batch.
func batchPredictAPIHandler(scorer *risk.Scorer, db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var reqs []*predictRequest
		if err := decodeBody(w, r, &reqs); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if len(reqs) == 0 || len(reqs) > batchSizeMax {
			writeError(w, http.StatusBadRequest, "batch must hold between 1 and "+strconv.Itoa(batchSizeMax)+" items")
			return
		}

		results := make([]*PredictResult, 0, len(reqs))
		records := make([]*data.Prediction, 0, len(reqs))
		for i, req := range reqs {
			if req == nil {
				writeError(w, http.StatusBadRequest, "item "+strconv.Itoa(i)+": null observation")
				return
			}
			obs, err := req.observation()
			if err != nil {
				writeError(w, http.StatusBadRequest, "item "+strconv.Itoa(i)+": "+err.Error())
				return
			}

			l, err := scorer.Predict(obs)
			if err != nil {
				slog.Error("failed to score observation", "error", err)
				writeError(w, scoringErrorStatus(err), "failed to score observation")
				return
			}

			results = append(results, newPredictResult(scorer, obs, l))
			records = append(records, toPrediction(obs, l, data.SourceAPI))
		}

		if err := data.SavePredictions(db, records); err != nil {
			slog.Error("failed to record predictions", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to record predictions")
			return
		}

		writeJSON(w, http.StatusOK, results)
	}
}

// streamAPIHandler serves n readings sampled from the generated dataset,
// stamped 5 seconds apart from now.
func streamAPIHandler(ds risk.Dataset) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n := queryParamInt(r, "n", streamSizeDefault, streamSizeMax)

		now := time.Now().UTC()
		rows := ds.Sample(rand.New(rand.NewPCG(uint64(now.UnixNano()), 0)), n) //nolint:gosec // simulation only
		points := make([]*StreamPoint, len(rows))
		for i, row := range rows {
			points[i] = &StreamPoint{
				Time: now.Add(time.Duration(i) * streamInterval).Format(time.RFC3339),
				Row:  row,
			}
		}

		writeJSON(w, http.StatusOK, points)
	}
}

func predictionsAPIHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := queryParamInt(r, "limit", data.PredictionLimitDefault, listLimitMax)

		var filter *string
		if v := r.URL.Query().Get("risk"); v != "" {
			l, err := risk.ParseLabel(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			s := l.String()
			filter = &s
		}

		list, err := data.GetPredictions(db, filter, limit)
		if err != nil {
			slog.Error("failed to get predictions", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to get predictions")
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func runsAPIHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := queryParamInt(r, "limit", data.PredictionLimitDefault, listLimitMax)

		list, err := data.GetTrainingRuns(db, limit)
		if err != nil {
			slog.Error("failed to get training runs", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to get training runs")
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func stateAPIHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		state, err := data.GetDataState(db)
		if err != nil {
			slog.Error("failed to get data state", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to get data state")
			return
		}
		writeJSON(w, http.StatusOK, state)
	}
}

func healthAPIHandler(scorer *risk.Scorer) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"trained": scorer.Trained()})
	}
}

func scoringErrorStatus(err error) int {
	if isTrainingError(err) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// queryParamInt returns def for missing or non-positive values and clamps
// larger ones to maxVal.
func queryParamInt(r *http.Request, key string, def, maxVal int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}

	i, err := strconv.Atoi(v)
	if err != nil {
		slog.Debug("error converting query string to int", "key", key, "value", v, "error", err)
		return def
	}

	if i < 1 {
		return def
	}
	if i > maxVal {
		return maxVal
	}

	return i
}
