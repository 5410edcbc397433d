package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/resiliencetracker/internal/service"
	"github.com/resiliencetracker/internal/wellbeing"
)

func serviceClient(email string) service.ClientInput {
	return service.ClientInput{FirstName: "Other", LastName: "Client", Email: email, Password: "other-pass"}
}

func TestCreateScoreResponses(t *testing.T) {
	env := newTestEnv(t)
	r := env.engine(http.MethodPost, "/assessments/:id/scores", env.api.CreateScore)
	token := env.token(t, &env.fixture.Client)
	path := fmt.Sprintf("/assessments/%d/scores", env.fixture.Assessment.ID)
	body := fmt.Sprintf(`{"client_habit_id": %d, "score": 6.25, "note": "<i>ok</i>"}`, env.fixture.ClientHabit.ID)

	rr := serve(r, http.MethodPost, path, token, body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rr.Code, rr.Body.String())
	}
	var created map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created["score"] != 6.2 || created["note"] != "ok" {
		t.Fatalf("unexpected score payload: %v", created)
	}

	for i := 1; i < wellbeing.WeeklyScoreLimit; i++ {
		if rr := serve(r, http.MethodPost, path, token, body); rr.Code != http.StatusCreated {
			t.Fatalf("score %d: expected status %d, got %d", i, http.StatusCreated, rr.Code)
		}
	}
	rr = serve(r, http.MethodPost, path, token, body)
	if rr.Code != http.StatusConflict || errorCode(t, rr) != "CONFLICT" {
		t.Fatalf("expected limit conflict, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = serve(r, http.MethodPost, path, token, `{"client_habit_id": 1, "score": "high"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected non numeric score to be rejected, got %d", rr.Code)
	}
}

func TestScoreRoutesEnforceOwnership(t *testing.T) {
	env := newTestEnv(t)
	create := env.engine(http.MethodPost, "/assessments/:id/scores", env.api.CreateScore)
	remove := env.engine(http.MethodDelete, "/scores/:id", env.api.DeleteScore)

	other, _, err := env.api.users.CreateClient(serviceClient("other@example.com"))
	if err != nil {
		t.Fatalf("create other client: %v", err)
	}
	otherToken := env.token(t, other)

	path := fmt.Sprintf("/assessments/%d/scores", env.fixture.Assessment.ID)
	body := fmt.Sprintf(`{"client_habit_id": %d, "score": 5}`, env.fixture.ClientHabit.ID)
	if rr := serve(create, http.MethodPost, path, otherToken, body); rr.Code != http.StatusForbidden {
		t.Fatalf("expected other client to be forbidden, got %d", rr.Code)
	}

	rr := serve(create, http.MethodPost, path, env.token(t, &env.fixture.Counsellor), body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected counsellor to create score, got %d: %s", rr.Code, rr.Body.String())
	}
	var created struct {
		ID uint `json:"id"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	scorePath := fmt.Sprintf("/scores/%d", created.ID)
	if rr := serve(remove, http.MethodDelete, scorePath, otherToken, ""); rr.Code != http.StatusForbidden {
		t.Fatalf("expected other client delete to be forbidden, got %d", rr.Code)
	}
	if rr := serve(remove, http.MethodDelete, scorePath, env.token(t, &env.fixture.Client), ""); rr.Code != http.StatusOK {
		t.Fatalf("expected owner delete to succeed, got %d", rr.Code)
	}
	if rr := serve(remove, http.MethodDelete, scorePath, env.token(t, &env.fixture.Client), ""); rr.Code != http.StatusNotFound {
		t.Fatalf("expected second delete to be 404, got %d", rr.Code)
	}
}

func TestCreateAssessmentRejectsBadDate(t *testing.T) {
	env := newTestEnv(t)
	r := env.engine(http.MethodPost, "/clients/:id/assessments", env.api.CreateAssessment)
	path := fmt.Sprintf("/clients/%d/assessments", env.fixture.Client.ID)
	token := env.token(t, &env.fixture.Client)

	if rr := serve(r, http.MethodPost, path, token, `{"week_start_date": "March 4"}`); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected bad date to be rejected, got %d", rr.Code)
	}
	if rr := serve(r, http.MethodPost, path, token, `{}`); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected missing date to be rejected, got %d", rr.Code)
	}
	if rr := serve(r, http.MethodPost, path, token, `{"week_start_date": "2024-03-04"}`); rr.Code != http.StatusConflict {
		t.Fatalf("expected duplicate week conflict, got %d", rr.Code)
	}
}
