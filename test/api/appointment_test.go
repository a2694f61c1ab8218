//go:build integration

package api_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppointmentLifecycle(t *testing.T) {
	patientID := createTestPatient(t)
	appointmentID := createTestAppointment(t, patientID)

	getResp := makeRequest(http.MethodGet, fmt.Sprintf("/appointments/%s", appointmentID), nil, authToken)
	require.True(t, getResp.IsSuccess(), getResp.Message)
	assert.Equal(t, "pending", getResp.Data["status"])

	actionsResp := makeRequest(http.MethodGet, fmt.Sprintf("/appointments/%s/actions", appointmentID), nil, authToken)
	require.True(t, actionsResp.IsSuccess(), actionsResp.Message)
	assert.ElementsMatch(t, []interface{}{"confirmed", "cancelled"}, actionsResp.Data["actions"])

	// pending cannot jump to in_progress
	skipResp := changeStatus(t, appointmentID, "in_progress")
	assert.Equal(t, http.StatusConflict, skipResp.Code)

	for _, status := range []string{"confirmed", "in_progress", "completed"} {
		resp := changeStatus(t, appointmentID, status)
		require.True(t, resp.IsSuccess(), "%s: %s", status, resp.Message)
		assert.Equal(t, status, resp.Data["status"])
	}

	// completed is terminal
	cancelResp := makeRequest(http.MethodPost, fmt.Sprintf("/appointments/%s/cancel", appointmentID), map[string]interface{}{
		"reason": "too late",
	}, authToken)
	assert.Equal(t, http.StatusConflict, cancelResp.Code)

	historyResp := makeRequest(http.MethodGet, fmt.Sprintf("/appointments/%s/history", appointmentID), nil, authToken)
	require.True(t, historyResp.IsSuccess(), historyResp.Message)
	assert.Len(t, historyResp.List, 3)
}

func TestAppointmentCancel(t *testing.T) {
	patientID := createTestPatient(t)
	appointmentID := createTestAppointment(t, patientID)

	noReason := makeRequest(http.MethodPost, fmt.Sprintf("/appointments/%s/cancel", appointmentID), map[string]interface{}{}, authToken)
	assert.Equal(t, http.StatusBadRequest, noReason.Code)

	resp := makeRequest(http.MethodPost, fmt.Sprintf("/appointments/%s/cancel", appointmentID), map[string]interface{}{
		"reason": "patient called in sick",
	}, authToken)
	require.True(t, resp.IsSuccess(), resp.Message)
	assert.Equal(t, "cancelled", resp.Data["status"])
	assert.Equal(t, "patient called in sick", resp.Data["cancel_reason"])
}

func TestAppointmentPatientCannotChangeStatus(t *testing.T) {
	patientID := createTestPatient(t)
	appointmentID := createTestAppointment(t, patientID)

	_, email, password := createTestUser(t, "patient", map[string]interface{}{"patient_id": patientID})
	token := login(t, email, password)

	getResp := makeRequest(http.MethodGet, fmt.Sprintf("/appointments/%s", appointmentID), nil, token)
	assert.True(t, getResp.IsSuccess(), getResp.Message)

	statusResp := makeRequest(http.MethodPost, fmt.Sprintf("/appointments/%s/status", appointmentID), map[string]interface{}{
		"status": "confirmed",
	}, token)
	assert.Equal(t, http.StatusForbidden, statusResp.Code)
}

func TestSecretaryCannotStartVisit(t *testing.T) {
	patientID := createTestPatient(t)
	appointmentID := createTestAppointment(t, patientID)
	require.True(t, changeStatus(t, appointmentID, "confirmed").IsSuccess())

	_, email, password := createTestUser(t, "secretary", nil)
	token := login(t, email, password)

	resp := makeRequest(http.MethodPost, fmt.Sprintf("/appointments/%s/status", appointmentID), map[string]interface{}{
		"status": "in_progress",
	}, token)
	assert.Equal(t, http.StatusForbidden, resp.Code)
}
