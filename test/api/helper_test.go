//go:build integration

package api_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Helper function to generate unique names
func uniqueName(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
}

func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s_%d@example.com", prefix, time.Now().UnixNano())
}

// Helper to create test patient
func createTestPatient(t *testing.T) string {
	t.Helper()
	resp := makeRequest(http.MethodPost, "/patients", map[string]interface{}{
		"name":          uniqueName("Test Patient"),
		"email":         uniqueEmail("patient"),
		"phone":         "+5491155550000",
		"date_of_birth": time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC).Format(time.RFC3339),
	}, authToken)

	require.True(t, resp.IsSuccess(), "create patient: %s", resp.Message)
	return resp.GetString("id")
}

// createTestUser registers a login and returns its id
func createTestUser(t *testing.T, role string, body map[string]interface{}) (id, email, password string) {
	t.Helper()
	email = uniqueEmail(role)
	password = "password-" + role

	req := map[string]interface{}{
		"email":    email,
		"name":     uniqueName("Test " + role),
		"password": password,
		"role":     role,
	}
	for k, v := range body {
		req[k] = v
	}

	resp := makeRequest(http.MethodPost, "/users", req, authToken)
	require.True(t, resp.IsSuccess(), "create %s: %s", role, resp.Message)
	return resp.GetString("id"), email, password
}

func login(t *testing.T, email, password string) string {
	t.Helper()
	resp := makeRequest(http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, "")
	require.True(t, resp.IsSuccess(), "login %s: %s", email, resp.Message)
	return resp.GetString("access_token")
}

// createTestAppointment books a slot a day ahead with a fresh doctor
func createTestAppointment(t *testing.T, patientID string) string {
	t.Helper()
	doctorID, _, _ := createTestUser(t, "doctor", nil)

	resp := makeRequest(http.MethodPost, "/appointments", map[string]interface{}{
		"patient_id":   patientID,
		"doctor_id":    doctorID,
		"scheduled_at": time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339),
		"reason":       "Annual check-up",
	}, authToken)
	require.True(t, resp.IsSuccess(), "create appointment: %s", resp.Message)
	return resp.GetString("id")
}

func changeStatus(t *testing.T, appointmentID, status string) TestResponse {
	t.Helper()
	return makeRequest(http.MethodPost, fmt.Sprintf("/appointments/%s/status", appointmentID), map[string]interface{}{
		"status": status,
	}, authToken)
}

// firstServiceCode skips the test when the catalog has no active service
func firstServiceCode(t *testing.T) string {
	t.Helper()
	resp := makeRequest(http.MethodGet, "/services", nil, authToken)
	require.True(t, resp.IsSuccess(), "list services: %s", resp.Message)
	for _, item := range resp.List {
		if svc, ok := item.(map[string]interface{}); ok {
			if code, ok := svc["code"].(string); ok && code != "" {
				return code
			}
		}
	}
	t.Skip("service catalog is empty")
	return ""
}
