package api

import (
	"context"
	"errors"

	p "github.com/icebreakr/icebreakr-backend/persistence"
)

type mockSqlClient struct {
	findStatus    p.Status
	findRecord    p.UserRecord
	updateStatus  p.Status
	savedGoogleID string
	savedText     string
}

func (mc *mockSqlClient) CreateRecord(p.UserRecord) p.Status {
	return p.CREATED
}

func (mc *mockSqlClient) UpdateRecord(string, map[string]string) p.Status {
	return mc.updateStatus
}

func (mc *mockSqlClient) RetrieveRecords(map[string]string) ([]p.UserRecord, p.Status) {
	return nil, mc.findStatus
}

func (mc *mockSqlClient) DeleteRecord(string) p.Status {
	return p.DELETED
}

func (mc *mockSqlClient) FindByGoogleID(string) (p.UserRecord, p.Status) {
	return mc.findRecord, mc.findStatus
}

func (mc *mockSqlClient) SetIcebreaker(googleID string, text string) p.Status {
	mc.savedGoogleID = googleID
	mc.savedText = text
	return mc.updateStatus
}

func (mc *mockSqlClient) ActiveConnection() bool {
	return true
}

type mockEnrichmentClient struct {
	question    string
	vibePayload []byte
	contentType string
	err         error
}

func (mc *mockEnrichmentClient) FetchIcebreaker(context.Context) (string, error) {
	if mc.err != nil {
		return "", mc.err
	}
	return mc.question, nil
}

func (mc *mockEnrichmentClient) FetchVibe(_ context.Context, bio string) ([]byte, string, error) {
	if mc.err != nil {
		return nil, "", mc.err
	}
	return mc.vibePayload, mc.contentType, nil
}

var errProviderDown = errors.New("provider unavailable")
