package persistence

import (
	"database/sql"
	"os"
	"testing"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func init() {
	log.SetLevel(log.DebugLevel)
}

func TestValidateString(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("hello", validateString(sql.NullString{String: "hello", Valid: true}))
	assert.Equal("", validateString(sql.NullString{String: "ignored", Valid: false}))
}

// newTestClient connects to the DB named by TEST_SQL_DSN or skips the test.
// Expects TEST_SQL_CREDENTIALS in 'user:pass' format.
func newTestClient(t *testing.T) Clienter {
	dsn := os.Getenv("TEST_SQL_DSN")
	if dsn == "" {
		t.Skip("TEST_SQL_DSN not set; skipping db integration test")
	}
	client, err := NewClient(dsn, os.Getenv("TEST_SQL_CREDENTIALS"))
	if err != nil {
		t.Fatalf("could not connect to test db: %v", err)
	}
	return client
}

func TestClient_IcebreakerRoundTrip(t *testing.T) {
	assert := assert.New(t)
	client := newTestClient(t)

	record := UserRecord{
		UserID:       uuid.NewString(),
		GoogleID:     uuid.NewString(),
		Name:         "Jane Doe",
		EmailAddress: "jane.doe@gmail.com",
		Bio:          "I love hiking",
	}
	assert.Equal(CREATED, client.CreateRecord(record), "test failed: could not add record to db")
	defer client.DeleteRecord(record.UserID)

	found, status := client.FindByGoogleID(record.GoogleID)
	assert.Equal(OK, status)
	assert.Equal(record.GoogleID, found.GoogleID)
	assert.Equal("", found.Icebreaker)

	assert.Equal(UPDATED, client.SetIcebreaker(record.GoogleID, "what is your favourite trail?"))
	// saving the same value again must still count as an update
	assert.Equal(UPDATED, client.SetIcebreaker(record.GoogleID, "what is your favourite trail?"))
	assert.Equal(UPDATED, client.SetIcebreaker(record.GoogleID, "cats or dogs?"))

	found, status = client.FindByGoogleID(record.GoogleID)
	assert.Equal(OK, status)
	assert.Equal("cats or dogs?", found.Icebreaker)
}

func TestClient_FindByGoogleIDMiss(t *testing.T) {
	assert := assert.New(t)
	client := newTestClient(t)

	_, status := client.FindByGoogleID("no-such-google-id")
	assert.Equal(NOT_FOUND, status)
	assert.Equal(NOT_FOUND, client.SetIcebreaker("no-such-google-id", "anything"))
}
