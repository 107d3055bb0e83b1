package users

import (
	p "github.com/icebreakr/icebreakr-backend/persistence"
)

type mockSqlClient struct {
	expectedStatus  p.Status
	expectedRecords []p.UserRecord
}

func (mc *mockSqlClient) CreateRecord(p.UserRecord) p.Status {
	return mc.expectedStatus
}

func (mc *mockSqlClient) UpdateRecord(string, map[string]string) p.Status {
	return mc.expectedStatus
}

func (mc *mockSqlClient) RetrieveRecords(map[string]string) ([]p.UserRecord, p.Status) {
	return mc.expectedRecords, mc.expectedStatus
}

func (mc *mockSqlClient) DeleteRecord(string) p.Status {
	return mc.expectedStatus
}

func (mc *mockSqlClient) FindByGoogleID(string) (p.UserRecord, p.Status) {
	if len(mc.expectedRecords) > 0 {
		return mc.expectedRecords[0], mc.expectedStatus
	}
	return p.UserRecord{}, mc.expectedStatus
}

func (mc *mockSqlClient) SetIcebreaker(string, string) p.Status {
	return mc.expectedStatus
}

func (mc *mockSqlClient) ActiveConnection() bool {
	return true
}
