// Package pipeline runs the upload -> predict -> optimize -> report flow over
// a session store.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/carbon-assistant/server/internal/agent/model"
	"github.com/carbon-assistant/server/internal/agent/optimizer"
	"github.com/carbon-assistant/server/internal/agent/predictor"
	"github.com/carbon-assistant/server/internal/agent/readiness"
	"github.com/carbon-assistant/server/internal/agent/schemamap"
	errx "github.com/carbon-assistant/server/internal/core/error"
	"github.com/carbon-assistant/server/internal/metrics"
	"github.com/carbon-assistant/server/internal/report"
	logx "github.com/carbon-assistant/server/pkg/logger"
)

const (
	MsgNoRows       = "uploaded file has no rows"
	MsgNoData       = "No data found in session"
	MsgNoPrediction = "No prediction found. Run prediction first."
	fallbackCompany = "My Company"
)

// Config wires the assistant's collaborators.
type Config struct {
	Sessions       model.SessionStore
	Bank           model.MemoryBank
	Predictor      *predictor.Predictor
	Optimizer      *optimizer.Optimizer
	Renderer       report.Renderer
	Metrics        *metrics.Metrics
	DefaultCompany string
}

// Assistant is the request-facing orchestrator. Every call is one sequential
// pass; nothing runs in the background.
type Assistant struct {
	sessions       model.SessionStore
	bank           model.MemoryBank
	predictor      *predictor.Predictor
	optimizer      *optimizer.Optimizer
	renderer       report.Renderer
	metrics        *metrics.Metrics
	defaultCompany string
}

// UploadResult is returned by Upload.
type UploadResult struct {
	SessionID string              `json:"session_id"`
	Preview   model.FeatureVector `json:"preview"`
	Rows      int                 `json:"rows"`
}

// Report is a rendered report document.
type Report struct {
	Body        []byte
	ContentType string
	FileName    string
}

func New(cfg Config) (*Assistant, error) {
	if cfg.Sessions == nil {
		return nil, fmt.Errorf("session store is nil")
	}
	if cfg.Bank == nil {
		return nil, fmt.Errorf("memory bank is nil")
	}
	if cfg.Predictor == nil || cfg.Optimizer == nil {
		return nil, fmt.Errorf("agents are not properly initialized")
	}
	if cfg.Renderer == nil {
		return nil, fmt.Errorf("report renderer is nil")
	}
	company := cfg.DefaultCompany
	if company == "" {
		company = fallbackCompany
	}
	return &Assistant{
		sessions:       cfg.Sessions,
		bank:           cfg.Bank,
		predictor:      cfg.Predictor,
		optimizer:      cfg.Optimizer,
		renderer:       cfg.Renderer,
		metrics:        cfg.Metrics,
		defaultCompany: company,
	}, nil
}

// Upload cleans table and stores its first row in the session. An empty or
// unknown sessionID starts a new session.
func (a *Assistant) Upload(ctx context.Context, sessionID, company string, table schemamap.Table) (UploadResult, error) {
	if table.Len() == 0 {
		return UploadResult{}, errx.MissingPrerequisite(MsgNoRows)
	}

	sessionID, err := a.ensureSession(ctx, sessionID)
	if err != nil {
		return UploadResult{}, err
	}

	cleaned := schemamap.Clean(table)
	fv, err := schemamap.FeatureVector(cleaned, 0)
	if err != nil {
		return UploadResult{}, errx.InvalidInput(err, "could not read uploaded data")
	}
	logx.Info().
		Str("sessionID", sessionID).
		Int("rows", table.Len()).
		Strs("columns", table.Columns).
		Str("data", fv.String()).
		Msg("Upload cleaned")

	if err := a.sessions.Update(ctx, sessionID, model.SlotData, fv); err != nil {
		return UploadResult{}, err
	}
	if err := a.sessions.Update(ctx, sessionID, model.SlotDataUploaded, true); err != nil {
		return UploadResult{}, err
	}

	if company != "" {
		if err := a.sessions.Update(ctx, sessionID, model.SlotCompany, company); err != nil {
			return UploadResult{}, err
		}
		profile := model.CompanyProfile{
			"company_size":    fv.CompanySize,
			"last_session_id": sessionID,
			"updated_at":      time.Now().UTC().Format(time.RFC3339),
		}
		if err := a.bank.SaveProfile(ctx, company, profile); err != nil {
			logx.Warn().Err(err).Str("company", company).Msg("failed to save company profile")
		}
	}

	return UploadResult{SessionID: sessionID, Preview: fv, Rows: table.Len()}, nil
}

func (a *Assistant) ensureSession(ctx context.Context, sessionID string) (string, error) {
	if sessionID != "" {
		_, err := a.sessions.Get(ctx, sessionID)
		if err == nil {
			return sessionID, nil
		}
		if !errors.Is(err, errx.ErrSessionNotFound) {
			return "", err
		}
		logx.Debug().Str("sessionID", sessionID).Msg("Unknown session on upload, starting a new one")
	}
	id, err := a.sessions.Create(ctx)
	if err != nil {
		return "", err
	}
	a.metrics.SessionCreated()
	return id, nil
}

// Predict estimates and explains the session's emission and records it in
// the memory bank.
func (a *Assistant) Predict(ctx context.Context, sessionID string) (model.PredictionResult, error) {
	sess, err := a.sessions.Get(ctx, sessionID)
	if err != nil && !errors.Is(err, errx.ErrSessionNotFound) {
		return model.PredictionResult{}, err
	}
	if sess == nil || sess.Data == nil {
		return model.PredictionResult{}, errx.MissingPrerequisite(MsgNoData)
	}

	fv := *sess.Data
	emission := a.predictor.Predict(ctx, fv)
	result := model.PredictionResult{
		EmissionKG:  emission,
		Explanation: a.predictor.Explain(ctx, fv, emission),
	}
	logx.Info().Str("sessionID", sessionID).Float64("emission_kg", emission).Msg("Predicted emission")

	if err := a.sessions.Update(ctx, sessionID, model.SlotPrediction, result); err != nil {
		return model.PredictionResult{}, err
	}
	if err := a.sessions.Update(ctx, sessionID, model.SlotPredictionMade, true); err != nil {
		return model.PredictionResult{}, err
	}
	a.metrics.Prediction(emission)

	record := model.MemoryRecord{SessionID: sessionID, Input: fv, Emission: emission, RecordedAt: time.Now().UTC()}
	if err := a.bank.SaveEmissionRecord(ctx, record); err != nil {
		logx.Warn().Err(err).Str("sessionID", sessionID).Msg("failed to save emission record")
	}
	return result, nil
}

// Optimize proposes reduction strategies for the stored prediction.
func (a *Assistant) Optimize(ctx context.Context, sessionID string) (model.OptimizationBundle, error) {
	sess, err := a.sessions.Get(ctx, sessionID)
	if err != nil && !errors.Is(err, errx.ErrSessionNotFound) {
		return model.OptimizationBundle{}, err
	}
	if sess == nil || sess.Prediction == nil {
		return model.OptimizationBundle{}, errx.MissingPrerequisite(MsgNoPrediction)
	}

	fv := model.DefaultFeatureVector()
	if sess.Data != nil {
		fv = *sess.Data
	}
	bundle := model.NewOptimizationBundle(a.optimizer.Optimize(ctx, fv, sess.Prediction.EmissionKG))

	if err := a.sessions.Update(ctx, sessionID, model.SlotOptimization, bundle); err != nil {
		return model.OptimizationBundle{}, err
	}
	if err := a.sessions.Update(ctx, sessionID, model.SlotOptimizationDone, true); err != nil {
		return model.OptimizationBundle{}, err
	}
	return bundle, nil
}

// Readiness reports the gate status. An unknown session reads as one with no
// data.
func (a *Assistant) Readiness(ctx context.Context, sessionID string) (readiness.Status, error) {
	sess, err := a.sessions.Get(ctx, sessionID)
	if err != nil && !errors.Is(err, errx.ErrSessionNotFound) {
		return readiness.Status{}, err
	}
	return readiness.Check(sess), nil
}

// Confirm records the user's answer to the report prompt.
func (a *Assistant) Confirm(ctx context.Context, sessionID, text string) (readiness.Response, error) {
	sess, err := a.sessions.Get(ctx, sessionID)
	if err != nil {
		return readiness.Response{}, err
	}

	resp := readiness.ProcessUserResponse(sess, text)
	if resp.Confirmed {
		if err := a.sessions.Update(ctx, sessionID, model.SlotUserConfirmedReport, true); err != nil {
			return readiness.Response{}, err
		}
	}
	return resp, nil
}

// Report renders the final report once the gate is satisfied. company
// overrides the name stored with the session.
func (a *Assistant) Report(ctx context.Context, sessionID, company string) (Report, error) {
	sess, err := a.sessions.Get(ctx, sessionID)
	if err != nil {
		return Report{}, err
	}

	status := readiness.Check(sess)
	if !status.Ready {
		return Report{}, errx.MissingPrerequisite(status.Message)
	}
	if sess.Prediction == nil {
		return Report{}, errx.MissingPrerequisite(MsgNoPrediction)
	}
	bundle := model.OptimizationBundle{}
	if sess.Optimization != nil {
		bundle = *sess.Optimization
	}

	if company == "" {
		company = sess.Company
	}
	if company == "" {
		company = a.defaultCompany
	}

	body, err := a.renderer.Render(company, *sess.Prediction, bundle)
	if err != nil {
		return Report{}, err
	}
	return Report{Body: body, ContentType: a.renderer.ContentType(), FileName: a.renderer.FileName()}, nil
}

// Stats summarises the memory bank.
func (a *Assistant) Stats(ctx context.Context) (model.MemoryStats, error) {
	return a.bank.Stats(ctx)
}
