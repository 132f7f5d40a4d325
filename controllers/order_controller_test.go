package controllers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/birthday-song/birthday-song-api/models"
)

func TestCreateOrder(t *testing.T) {
	db := setupTestDB(t)
	setupTestServices(t)
	router := newTestRouter()

	tests := []struct {
		name           string
		requestBody    map[string]interface{}
		expectedStatus int
		expectedError  string
		checkResponse  func(t *testing.T, response map[string]interface{})
	}{
		{
			name: "Successfully create order",
			requestBody: map[string]interface{}{
				"recipientName":   "Dana",
				"recipientGender": "female",
				"desiredTone":     "funny",
				"language":        "en",
				"questionnaire": map[string]interface{}{
					"favorite_color": "teal",
					"inside_joke":    "the llama incident",
				},
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, response map[string]interface{}) {
				assert.True(t, response["success"].(bool))
				data := response["data"].(map[string]interface{})
				order := data["order"].(map[string]interface{})
				assert.Equal(t, "Dana", order["recipient_name"])
				assert.Equal(t, models.OrderStatusQuestionnaireDone, order["status"])
				assert.NotEmpty(t, order["id"])

				raw := order["questionnaire_raw"].(map[string]interface{})
				assert.Equal(t, "teal", raw["favorite_color"])
				assert.Equal(t, "the llama incident", raw["inside_joke"])
			},
		},
		{
			name: "Default language is en",
			requestBody: map[string]interface{}{
				"recipientName": "Max",
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, response map[string]interface{}) {
				order := response["data"].(map[string]interface{})["order"].(map[string]interface{})
				assert.Equal(t, "en", order["language"])
			},
		},
		{
			name:           "Fail with missing recipient name",
			requestBody:    map[string]interface{}{"recipientGender": "male"},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "VALIDATION_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder, response := performJSON(router, "POST", "/orders", tt.requestBody)

			assert.Equal(t, tt.expectedStatus, recorder.Code)
			if tt.expectedError != "" {
				errData := response["error"].(map[string]interface{})
				assert.Equal(t, tt.expectedError, errData["code"])
			}
			if tt.checkResponse != nil {
				tt.checkResponse(t, response)
			}
		})
	}

	// Creation must emit an audit event.
	var events []models.Event
	db.Where("type = ?", "order_created").Find(&events)
	assert.Len(t, events, 2)
}

func TestGetOrder(t *testing.T) {
	db := setupTestDB(t)
	setupTestServices(t)
	router := newTestRouter()

	order := createTestOrder(t, db, models.OrderStatusQuestionnaireDone)

	recorder, response := performJSON(router, "GET", "/orders/"+order.ID, nil)
	assert.Equal(t, http.StatusOK, recorder.Code)

	data := response["data"].(map[string]interface{})
	got := data["order"].(map[string]interface{})
	assert.Equal(t, order.ID, got["id"])
	assert.Empty(t, data["lyrics"])
	assert.Empty(t, data["songs"])
	assert.Nil(t, data["video"])
	assert.Empty(t, data["payments"])
}

func TestGetOrderNotFound(t *testing.T) {
	setupTestDB(t)
	setupTestServices(t)
	router := newTestRouter()

	recorder, response := performJSON(router, "GET", "/orders/00000000-0000-0000-0000-000000000000", nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
	errData := response["error"].(map[string]interface{})
	assert.Equal(t, "ORDER_NOT_FOUND", errData["code"])
}

func TestUpdateOrder(t *testing.T) {
	db := setupTestDB(t)
	setupTestServices(t)
	router := newTestRouter()

	t.Run("update email and style", func(t *testing.T) {
		order := createTestOrder(t, db, models.OrderStatusQuestionnaireDone)

		recorder, response := performJSON(router, "PATCH", "/orders/"+order.ID, map[string]interface{}{
			"email":         "dana@example.com",
			"selectedStyle": "pop",
		})
		assert.Equal(t, http.StatusOK, recorder.Code)
		got := response["data"].(map[string]interface{})["order"].(map[string]interface{})
		assert.Equal(t, "dana@example.com", got["email"])
		assert.Equal(t, "pop", got["selected_style"])
	})

	t.Run("selected lyrics must belong to the order", func(t *testing.T) {
		order := createTestOrder(t, db, models.OrderStatusQuestionnaireDone)
		other := createTestOrder(t, db, models.OrderStatusQuestionnaireDone)

		foreign := models.LyricsVariation{
			ID:      "11111111-1111-1111-1111-111111111111",
			OrderID: other.ID,
			Content: "not yours",
		}
		assert.NoError(t, db.Create(&foreign).Error)

		recorder, response := performJSON(router, "PATCH", "/orders/"+order.ID, map[string]interface{}{
			"selectedLyricsId": foreign.ID,
		})
		assert.Equal(t, http.StatusNotFound, recorder.Code)
		errData := response["error"].(map[string]interface{})
		assert.Equal(t, "LYRICS_NOT_FOUND", errData["code"])
	})

	t.Run("forward status transition allowed", func(t *testing.T) {
		order := createTestOrder(t, db, models.OrderStatusQuestionnaireDone)

		recorder, _ := performJSON(router, "PATCH", "/orders/"+order.ID, map[string]interface{}{
			"status": models.OrderStatusLyricsReady,
		})
		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("backward status transition rejected", func(t *testing.T) {
		order := createTestOrder(t, db, models.OrderStatusPaid)

		recorder, response := performJSON(router, "PATCH", "/orders/"+order.ID, map[string]interface{}{
			"status": models.OrderStatusSongReady,
		})
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		errData := response["error"].(map[string]interface{})
		assert.Equal(t, "VALIDATION_ERROR", errData["code"])
	})

	t.Run("unknown status rejected", func(t *testing.T) {
		order := createTestOrder(t, db, models.OrderStatusQuestionnaireDone)

		recorder, _ := performJSON(router, "PATCH", "/orders/"+order.ID, map[string]interface{}{
			"status": "shipped",
		})
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})
}

func TestQuestionnaireRawRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	setupTestServices(t)
	router := newTestRouter()

	questionnaire := map[string]interface{}{
		"q1": "loves hiking",
		"q2": []interface{}{"kind", "stubborn"},
	}
	recorder, response := performJSON(router, "POST", "/orders", map[string]interface{}{
		"recipientName": "Dana",
		"questionnaire": questionnaire,
	})
	assert.Equal(t, http.StatusCreated, recorder.Code)

	orderID := response["data"].(map[string]interface{})["order"].(map[string]interface{})["id"].(string)

	var stored models.Order
	assert.NoError(t, db.First(&stored, "id = ?", orderID).Error)

	var raw map[string]interface{}
	assert.NoError(t, json.Unmarshal(stored.QuestionnaireRaw, &raw))
	assert.Equal(t, questionnaire["q1"], raw["q1"])
	assert.Equal(t, questionnaire["q2"], raw["q2"])
}
