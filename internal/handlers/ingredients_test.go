package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"gorm.io/gorm"

	"saponaria/models"
)

func createTestUsers(t *testing.T, db *gorm.DB, emails ...string) []models.User {
	t.Helper()
	users := make([]models.User, 0, len(emails))
	for _, email := range emails {
		user := models.User{Email: email, PasswordHash: "hash", Unit: models.DefaultUnit}
		if err := db.Create(&user).Error; err != nil {
			t.Fatalf("failed to create user %s: %v", email, err)
		}
		users = append(users, user)
	}
	return users
}

func floatPtr(v float64) *float64 { return &v }

func TestIngredientShowAccessControl(t *testing.T) {
	db, cleanupDB := withTestDatabase(t)
	t.Cleanup(cleanupDB)
	sm, cleanupSession := withTestSessionManager(t)
	t.Cleanup(cleanupSession)

	users := createTestUsers(t, db, "owner@example.com", "viewer@example.com")
	owner, viewer := users[0], users[1]

	ingredient := models.Ingredient{Name: "Babassu Oil", OwnerID: owner.ID, Kind: models.KindOil}
	if err := db.Create(&ingredient).Error; err != nil {
		t.Fatalf("failed to create ingredient: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/app/api/ingredients/%d", ingredient.ID), nil)
	req = authenticateRequest(t, sm, req, owner.ID)
	w := httptest.NewRecorder()
	IngredientResource(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200 for owner, got %d", w.Code)
	}
	var response ingredientResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !response.CanEdit || !response.CanDelete {
		t.Fatalf("expected owner to have edit/delete permissions: %+v", response)
	}

	req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/app/api/ingredients/%d", ingredient.ID), nil)
	req = authenticateRequest(t, sm, req, viewer.ID)
	w = httptest.NewRecorder()
	IngredientResource(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 for private ingredient, got %d", w.Code)
	}

	if err := db.Model(&ingredient).Update("public", true).Error; err != nil {
		t.Fatalf("failed to publish ingredient: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/app/api/ingredients/%d", ingredient.ID), nil)
	req = authenticateRequest(t, sm, req, viewer.ID)
	w = httptest.NewRecorder()
	IngredientResource(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200 for public ingredient, got %d", w.Code)
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to decode viewer response: %v", err)
	}
	if response.CanEdit || response.CanDelete || !response.CanCopy {
		t.Fatalf("expected viewer to copy but not edit: %+v", response)
	}
}

func TestIngredientCreateAndList(t *testing.T) {
	db, cleanupDB := withTestDatabase(t)
	t.Cleanup(cleanupDB)
	sm, cleanupSession := withTestSessionManager(t)
	t.Cleanup(cleanupSession)

	owner := createTestUsers(t, db, "maker@example.com")[0]

	payload := ingredientRequest{
		Name:       "Olive Oil",
		INCIName:   "Olea Europaea Fruit Oil",
		Kind:       "oil",
		SAPNaOH:    floatPtr(0.1353),
		SAPKOH:     floatPtr(0.1899),
		Iodine:     floatPtr(85),
		FattyAcids: map[string]float64{"oleic": 69, "linoleic": 12},
		OtherNames: []string{"Pomace", " "},
	}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/app/api/ingredients", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = authenticateRequest(t, sm, req, owner.ID)
	w := httptest.NewRecorder()
	IngredientResource(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201 for create, got %d: %s", w.Code, w.Body.String())
	}

	var created ingredientResponse
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode create response: %v", err)
	}
	if created.OwnerID != owner.ID || created.Kind != models.KindOil {
		t.Fatalf("unexpected created ingredient %+v", created)
	}
	if len(created.OtherNames) != 1 || created.OtherNames[0] != "Pomace" {
		t.Fatalf("expected blank aliases to be dropped, got %+v", created.OtherNames)
	}
	if created.FattyAcids["oleic"] != 69 {
		t.Fatalf("expected fatty acid profile to persist, got %+v", created.FattyAcids)
	}

	fragrance := models.Ingredient{Name: "Lavender EO", Kind: models.KindFragrance, Public: true}
	if err := db.Create(&fragrance).Error; err != nil {
		t.Fatalf("failed to create fragrance: %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/app/api/ingredients?kind=eo", nil)
	req = authenticateRequest(t, sm, req, owner.ID)
	w = httptest.NewRecorder()
	IngredientResource(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200 for list, got %d", w.Code)
	}
	var listed []ingredientResponse
	if err := json.Unmarshal(w.Body.Bytes(), &listed); err != nil {
		t.Fatalf("failed to decode list response: %v", err)
	}
	if len(listed) != 1 || listed[0].Name != "Lavender EO" {
		t.Fatalf("expected kind filter to return the fragrance only, got %+v", listed)
	}
}

func TestIngredientCreateValidation(t *testing.T) {
	db, cleanupDB := withTestDatabase(t)
	t.Cleanup(cleanupDB)
	sm, cleanupSession := withTestSessionManager(t)
	t.Cleanup(cleanupSession)

	owner := createTestUsers(t, db, "maker@example.com")[0]

	tests := []struct {
		name string
		body string
	}{
		{name: "malformed", body: `{"name":`},
		{name: "missing name", body: `{"name":"  "}`},
		{name: "usage above 100", body: `{"name":"Lye","max_usage_percent":120}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/app/api/ingredients", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			req = authenticateRequest(t, sm, req, owner.ID)
			w := httptest.NewRecorder()
			IngredientResource(w, req)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", w.Code)
			}
		})
	}
}

func TestIngredientUpdateUnauthorized(t *testing.T) {
	db, cleanupDB := withTestDatabase(t)
	t.Cleanup(cleanupDB)
	sm, cleanupSession := withTestSessionManager(t)
	t.Cleanup(cleanupSession)

	users := createTestUsers(t, db, "owner@example.com", "viewer@example.com")
	owner, viewer := users[0], users[1]

	ingredient := models.Ingredient{Name: "Locked", OwnerID: owner.ID, Public: true}
	if err := db.Create(&ingredient).Error; err != nil {
		t.Fatalf("failed to create ingredient: %v", err)
	}

	body, _ := json.Marshal(ingredientRequest{Name: "New Name"})
	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/app/api/ingredients/%d", ingredient.ID), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = authenticateRequest(t, sm, req, viewer.ID)
	w := httptest.NewRecorder()
	IngredientResource(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 for foreign update, got %d", w.Code)
	}

	body, _ = json.Marshal(ingredientRequest{Name: "Unlocked", Kind: "additive", MaxUsagePercent: 3, OtherNames: []string{"A", "B"}})
	req = httptest.NewRequest(http.MethodPut, fmt.Sprintf("/app/api/ingredients/%d", ingredient.ID), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = authenticateRequest(t, sm, req, owner.ID)
	w = httptest.NewRecorder()
	IngredientResource(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200 for owner update, got %d: %s", w.Code, w.Body.String())
	}

	var stored models.Ingredient
	if err := db.Preload("OtherNames").First(&stored, ingredient.ID).Error; err != nil {
		t.Fatalf("failed to reload ingredient: %v", err)
	}
	if stored.Name != "Unlocked" || stored.Kind != models.KindAdditive || stored.MaxUsagePercent != 3 {
		t.Fatalf("expected stored fields to update, got %+v", stored)
	}
	if len(stored.OtherNames) != 2 {
		t.Fatalf("expected two aliases, got %d", len(stored.OtherNames))
	}
}

func TestIngredientCopyAndDelete(t *testing.T) {
	db, cleanupDB := withTestDatabase(t)
	t.Cleanup(cleanupDB)
	sm, cleanupSession := withTestSessionManager(t)
	t.Cleanup(cleanupSession)

	users := createTestUsers(t, db, "owner@example.com", "other@example.com")
	owner, other := users[0], users[1]

	ingredient := models.Ingredient{Name: "Shea Butter", OwnerID: owner.ID, Public: true, SAPNaOH: floatPtr(0.128)}
	if err := db.Create(&ingredient).Error; err != nil {
		t.Fatalf("failed to create ingredient: %v", err)
	}
	if err := db.Model(&ingredient).Association("OtherNames").Replace([]models.IngredientAlias{{Name: "Karite"}}); err != nil {
		t.Fatalf("failed to seed aliases: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/app/api/ingredients/%d/copy", ingredient.ID), nil)
	req = authenticateRequest(t, sm, req, other.ID)
	w := httptest.NewRecorder()
	IngredientResource(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201 for copy, got %d", w.Code)
	}

	var response ingredientResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to decode copy response: %v", err)
	}
	if response.OwnerID != other.ID || response.Public {
		t.Fatalf("expected a private clone owned by the copier, got %+v", response)
	}
	if response.Name != "Shea Butter (Copy)" {
		t.Fatalf("expected copy suffix, got %q", response.Name)
	}
	if response.SAPNaOH == nil || *response.SAPNaOH != 0.128 {
		t.Fatalf("expected chemistry to be copied, got %+v", response.SAPNaOH)
	}
	if len(response.OtherNames) != 1 {
		t.Fatalf("expected copied aliases, got %+v", response.OtherNames)
	}

	deleteReq := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/app/api/ingredients/%d", ingredient.ID), nil)
	deleteReq = authenticateRequest(t, sm, deleteReq, other.ID)
	deleteW := httptest.NewRecorder()
	IngredientResource(deleteW, deleteReq)
	if deleteW.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 deleting a foreign ingredient, got %d", deleteW.Code)
	}

	deleteReq = httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/app/api/ingredients/%d", ingredient.ID), nil)
	deleteReq = authenticateRequest(t, sm, deleteReq, owner.ID)
	deleteW = httptest.NewRecorder()
	IngredientResource(deleteW, deleteReq)
	if deleteW.Code != http.StatusNoContent {
		t.Fatalf("expected status 204 for delete, got %d", deleteW.Code)
	}

	var count int64
	if err := db.Model(&models.Ingredient{}).Where("id = ?", ingredient.ID).Count(&count).Error; err != nil {
		t.Fatalf("failed to count ingredients: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected deleted ingredient to be excluded from default queries")
	}
	if err := db.WithContext(context.Background()).Unscoped().Model(&models.Ingredient{}).Where("id = ?", ingredient.ID).Count(&count).Error; err != nil {
		t.Fatalf("failed to count unscoped ingredients: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected unscoped count to include deleted record")
	}
}
