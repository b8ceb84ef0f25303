package domain

import "testing"

func TestConnectorTypeConstants(t *testing.T) {
	tests := []struct {
		connector ConnectorType
		expected  string
	}{
		{ConnectorTypeMockEmail, "mock_email"},
		{ConnectorTypeFileBasedJSON, "file_based_json"},
		{ConnectorTypeMailAPI, "mail_api"},
		{ConnectorTypeWorkspaceAPI, "workspace_api"},
		{ConnectorTypeCloudStorage, "cloud_storage"},
	}

	for _, tt := range tests {
		t.Run(string(tt.connector), func(t *testing.T) {
			if string(tt.connector) != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, string(tt.connector))
			}
		})
	}
}

func TestConnectorType_IsValid(t *testing.T) {
	tests := []struct {
		connector ConnectorType
		expected  bool
	}{
		{ConnectorTypeMockEmail, true},
		{ConnectorTypeCloudStorage, true},
		{ConnectorType("unknown"), false},
		{ConnectorType(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.connector), func(t *testing.T) {
			if got := tt.connector.IsValid(); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestConnectorType_RequiresAuth(t *testing.T) {
	tests := []struct {
		connector ConnectorType
		expected  bool
	}{
		{ConnectorTypeMockEmail, false},
		{ConnectorTypeFileBasedJSON, false},
		{ConnectorTypeMailAPI, true},
		{ConnectorTypeWorkspaceAPI, true},
		{ConnectorTypeCloudStorage, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.connector), func(t *testing.T) {
			if got := tt.connector.RequiresAuth(); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestConnectorTypes(t *testing.T) {
	types := ConnectorTypes()
	if len(types) != 5 {
		t.Errorf("expected 5 connector types, got %d", len(types))
	}
}
