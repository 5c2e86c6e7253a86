package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"phambili/internal/budget"
	"phambili/internal/core"
	"phambili/internal/exports"
	"phambili/internal/imports"
	applog "phambili/internal/log"
	"phambili/internal/services"
	"phambili/internal/storage"
)

// timeNow is swapped out in tests.
var timeNow = time.Now

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrNoUser):
		UnauthorizedError("No user logged in").Write(w)
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrEmptyCategory),
		errors.Is(err, core.ErrEmptyName):
		UnprocessableEntityError(err.Error()).Write(w)
	case errors.Is(err, core.ErrGoalNotFound):
		NotFoundError(err.Error()).Write(w)
	case errors.Is(err, storage.ErrNoData):
		NotFoundError("No saved budget").Write(w)
	case errors.Is(err, imports.ErrInvalidFormat):
		UnprocessableEntityError(err.Error()).Write(w)
	default:
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Unhandled service error",
			"error", err, "path", r.URL.Path)
		InternalServerError("Internal error").Write(w)
	}
}

func expensePayload(e core.Expense) map[string]interface{} {
	return map[string]interface{}{
		"date":     e.Date.Format("2006-01-02"),
		"category": e.Category,
		"amount":   e.Amount.Rand(),
	}
}

func goalPayload(g core.SavingsGoal) map[string]interface{} {
	return map[string]interface{}{
		"id":       g.ID,
		"name":     g.Name,
		"target":   g.Target.Rand(),
		"saved":    g.Saved.Rand(),
		"progress": g.Progress(),
	}
}

func (s *Server) handleSetIncome(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request body").Write(w)
		return
	}

	cents, err := p.AmountCents("amount")
	if err != nil {
		UnprocessableEntityError("Invalid amount").Write(w)
		return
	}

	if err := s.svc.SetIncome(r.Context(), cents); err != nil {
		writeServiceError(w, r, err)
		return
	}

	s.invalidateDerived(r.Context())
	NewJSONResponse().Field("income", float64(cents)/100).Write(w)
}

func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		expenses, err := s.svc.Expenses(r.Context())
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		list := make([]map[string]interface{}, 0, len(expenses))
		for _, e := range expenses {
			list = append(list, expensePayload(e))
		}
		NewJSONResponse().Field("expenses", list).Write(w)
	case http.MethodPost:
		s.handleAddExpense(w, r)
	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request body").Write(w)
		return
	}

	category := p.Get("category")
	cents, err := p.AmountCents("amount")
	if err != nil {
		UnprocessableEntityError("Invalid amount").Write(w)
		return
	}

	outcome, err := s.svc.AddExpense(r.Context(), category, cents, ConfirmerFromRequest(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	switch outcome {
	case budget.Merged:
		s.invalidateDerived(r.Context())
		NewJSONResponse().Field("outcome", "merged").Write(w)
	case budget.Declined:
		// Nothing was mutated, so the cached views stay valid. An existing
		// category needs an explicit confirm=true to merge.
		ConflictError("Category exists; pass confirm=true to add to it").Write(w)
	default:
		s.invalidateDerived(r.Context())
		NewJSONResponse().Status(http.StatusCreated).Field("outcome", "added").Write(w)
	}
}

func (s *Server) handleGoals(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		goals, err := s.svc.Goals(r.Context())
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		list := make([]map[string]interface{}, 0, len(goals))
		for _, g := range goals {
			list = append(list, goalPayload(g))
		}
		NewJSONResponse().Field("goals", list).Write(w)
	case http.MethodPost:
		s.handleAddGoal(w, r)
	case http.MethodDelete:
		s.handleDeleteGoal(w, r)
	default:
		MethodNotAllowedError("GET, POST, DELETE").Write(w)
	}
}

func (s *Server) handleAddGoal(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request body").Write(w)
		return
	}

	name := p.Get("name")
	cents, err := p.AmountCents("target")
	if err != nil {
		UnprocessableEntityError("Invalid target amount").Write(w)
		return
	}

	goal, err := s.svc.AddGoal(r.Context(), name, cents)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	NewJSONResponse().Status(http.StatusCreated).Field("goal", goalPayload(goal)).Write(w)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		BadRequestError("Invalid goal id").Write(w)
		return
	}

	deleted, err := s.svc.DeleteGoal(r.Context(), id, ConfirmerFromRequest(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if !deleted {
		ConflictError("Deletion not confirmed; pass confirm=true").Write(w)
		return
	}
	NewJSONResponse().Field("deleted", id).Write(w)
}

func (s *Server) handleContributeToGoal(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request body").Write(w)
		return
	}

	id, err := p.Int64("id")
	if err != nil {
		BadRequestError("Invalid goal id").Write(w)
		return
	}
	cents, err := p.AmountCents("amount")
	if err != nil {
		UnprocessableEntityError("Invalid amount").Write(w)
		return
	}

	if err := s.svc.ContributeToGoal(r.Context(), id, cents); err != nil {
		writeServiceError(w, r, err)
		return
	}
	NewJSONResponse().Field("contributed", float64(cents)/100).Write(w)
}

func (s *Server) handleTotals(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	var totals core.Totals
	userID, cached := s.cacheUser(r.Context())
	if cached {
		if hit, found := s.totalsCache.Get(userID); found {
			totals = hit
			s.writeTotals(w, totals)
			return
		}
	}

	totals, err := s.svc.Totals(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if cached {
		s.totalsCache.Set(userID, totals)
	}
	s.writeTotals(w, totals)
}

func (s *Server) writeTotals(w http.ResponseWriter, totals core.Totals) {
	byCategory := make([]map[string]interface{}, 0, len(totals.ByCategory))
	for _, c := range totals.ByCategory {
		byCategory = append(byCategory, map[string]interface{}{
			"category": c.Name,
			"amount":   c.Amount.Rand(),
		})
	}
	NewJSONResponse().
		Field("income", totals.Income.Rand()).
		Field("total_expenses", totals.TotalExpenses.Rand()).
		Field("balance", totals.Balance.Rand()).
		Field("tax", totals.Tax.Rand()).
		Field("by_category", byCategory).
		Write(w)
}

func (s *Server) handleAdvice(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	var advice budget.Advice
	userID, cached := s.cacheUser(r.Context())
	if cached {
		if hit, found := s.adviceCache.Get(userID); found {
			advice = hit
			s.writeAdvice(w, advice)
			return
		}
	}

	advice, err := s.svc.Advise(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if cached {
		s.adviceCache.Set(userID, advice)
	}
	s.writeAdvice(w, advice)
}

func (s *Server) writeAdvice(w http.ResponseWriter, advice budget.Advice) {
	NewJSONResponse().
		Field("tier", advice.Tier.String()).
		Field("message", advice.Message).
		Field("savings", advice.Savings.Rand()).
		Field("savings_ratio", advice.SavingsRatio).
		Write(w)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if err := s.svc.Save(r.Context()); err != nil {
		slog.ErrorContext(r.Context(), "Save failed", "error", err)
		writeServiceError(w, r, err)
		return
	}
	NewJSONResponse().Field("saved", true).Write(w)
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if err := s.svc.Load(r.Context()); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.invalidateDerived(r.Context())
	NewJSONResponse().Field("loaded", true).Write(w)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if err := s.svc.Clear(r.Context()); err != nil {
		slog.ErrorContext(r.Context(), "Clear failed", "error", err)
		writeServiceError(w, r, err)
		return
	}
	s.invalidateDerived(r.Context())
	NewJSONResponse().Field("cleared", true).Write(w)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}

	res, err := s.svc.ImportCSV(r.Context(), r.Body, ConfirmerFromRequest(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if !res.Applied {
		ConflictError("Import not confirmed; pass confirm=true").Write(w)
		return
	}

	s.invalidateDerived(r.Context())
	NewJSONResponse().
		Field("imported", res.Imported).
		Field("skipped", res.Skipped).
		Write(w)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	withDate, _ := strconv.ParseBool(r.URL.Query().Get("dates"))

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+exports.Filename(timeNow())+`"`)
	if err := s.svc.ExportCSV(r.Context(), w, withDate); err != nil {
		slog.ErrorContext(r.Context(), "Export failed", "error", err)
	}
}

func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+exports.TemplateFilename+`"`)
	_, _ = w.Write([]byte(exports.Template))
}
