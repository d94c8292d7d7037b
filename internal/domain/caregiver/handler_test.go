package caregiver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medtrack/adherence/internal/platform/auth"
)

func roleContext(e *echo.Echo, req *http.Request, rec *httptest.ResponseRecorder, userID uuid.UUID, roles ...string) echo.Context {
	ctx := context.WithValue(req.Context(), auth.UserIDKey, userID.String())
	ctx = context.WithValue(ctx, auth.UserRolesKey, roles)
	return e.NewContext(req.WithContext(ctx), rec)
}

func TestHandlerConnect_Duplicate(t *testing.T) {
	e := echo.New()
	h := NewHandler(NewService(newMockRepo()))
	patientID, caregiverID := uuid.New(), uuid.New()

	connect := func() (*httptest.ResponseRecorder, error) {
		body := `{"caregiver_id":"` + caregiverID.String() + `"}`
		req := httptest.NewRequest(http.MethodPost, "/connections", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		return rec, h.Connect(roleContext(e, req, rec, patientID, "patient"))
	}

	rec, err := connect()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	_, err = connect()
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusConflict {
		t.Fatalf("expected 409 on duplicate, got %v", err)
	}
}

func TestHandlerList_RoleBranch(t *testing.T) {
	e := echo.New()
	svc := NewService(newMockRepo())
	h := NewHandler(svc)
	patientID, caregiverID := uuid.New(), uuid.New()
	if _, err := svc.Connect(context.Background(), patientID, caregiverID, nil); err != nil {
		t.Fatal(err)
	}

	listAs := func(userID uuid.UUID, role string) []*Connection {
		req := httptest.NewRequest(http.MethodGet, "/connections", nil)
		rec := httptest.NewRecorder()
		if err := h.List(roleContext(e, req, rec, userID, role)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var items []*Connection
		if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
			t.Fatalf("bad response body: %v", err)
		}
		return items
	}

	if got := listAs(patientID, "patient"); len(got) != 1 {
		t.Errorf("patient side: expected 1 connection, got %d", len(got))
	}
	if got := listAs(caregiverID, "caregiver"); len(got) != 1 {
		t.Errorf("caregiver side: expected 1 connection, got %d", len(got))
	}
	if got := listAs(uuid.New(), "caregiver"); len(got) != 0 {
		t.Errorf("stranger: expected no connections, got %d", len(got))
	}
}
