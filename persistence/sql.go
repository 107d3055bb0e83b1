package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	log "github.com/sirupsen/logrus"
)

//Client for SQL database
type Client struct {
	db *sql.DB
}

//Status abstracts business logic layer from http status codes
//Status must be exported for handler tests
type Status int

const (
	CREATED Status = iota
	ALREADY_EXISTS
	BACKEND_ERROR
	NOT_FOUND
	UPDATED
	OK
	DELETED
)

//Clienter provides an interface of Client functions. Useful for mocking
type Clienter interface {
	CreateRecord(UserRecord) Status
	UpdateRecord(string, map[string]string) Status
	RetrieveRecords(map[string]string) ([]UserRecord, Status)
	DeleteRecord(string) Status
	FindByGoogleID(string) (UserRecord, Status)
	SetIcebreaker(string, string) Status
	ActiveConnection() bool
}

//NewClient returns a MySQL client
func NewClient(dsn string, credentials string) (Clienter, error) {
	// clientFoundRows makes RowsAffected count matched rows, so saving an
	// unchanged icebreaker is still reported as an update rather than a miss
	connString := fmt.Sprintf("%s@/%s?interpolateParams=true&parseTime=true&clientFoundRows=true", credentials, dsn)
	db, err := sql.Open("mysql", connString)
	if err != nil {
		log.WithError(err).Error("error connecting to db")
		return &Client{}, err
	}

	if err = db.Ping(); err != nil {
		log.WithError(err).Error("error establishing active connection to db")
		return &Client{}, err
	}

	query := `CREATE TABLE IF NOT EXISTS Users (
    	user_id varchar(36) NOT NULL,
    	google_id varchar(64) NOT NULL,
    	name varchar(100) NOT NULL,
    	email varchar(150) NOT NULL,
    	bio text,
    	icebreaker text,
  		PRIMARY KEY (user_id),
  		UNIQUE KEY google_id_idx (google_id))`
	_, err = db.Exec(query)
	if err != nil {
		log.WithError(err).Error("error creating Users table")
		return &Client{}, err
	}
	return &Client{
		db: db,
	}, nil
}

//CreateRecord will attempt to add the provided user to the DB
func (c *Client) CreateRecord(record UserRecord) Status {
	dbQuery := `INSERT INTO Users (user_id, google_id, name, email, bio, icebreaker)
		VALUES (?, ?, ?, ?, ?, ?);`
	_, err := c.db.Exec(dbQuery, record.UserID, record.GoogleID, record.Name, record.EmailAddress, record.Bio, record.Icebreaker)
	if err != nil {
		var sqlError *mysql.MySQLError
		if errors.As(err, &sqlError) && sqlError.Number == 1062 {
			log.WithError(err).WithField("GoogleID", record.GoogleID).Error("user already exists!")
			return ALREADY_EXISTS
		}
		log.WithError(err).WithField("GoogleID", record.GoogleID).Errorf("could not add user to db")
		return BACKEND_ERROR
	}
	log.WithField("UserID", record.UserID).Infof("created record for user with google id %s", record.GoogleID)
	return CREATED
}

//FindByGoogleID performs a single-row lookup by the external identity key
func (c *Client) FindByGoogleID(googleID string) (UserRecord, Status) {
	dbQuery := `SELECT user_id, google_id, name, email, bio, icebreaker
				FROM Users
				WHERE google_id = ?;`

	var userID, gID, name, email, bio, icebreaker sql.NullString
	err := c.db.QueryRow(dbQuery, googleID).Scan(&userID, &gID, &name, &email, &bio, &icebreaker)
	if err == sql.ErrNoRows {
		log.WithField("GoogleID", googleID).Info("no user matching google id")
		return UserRecord{}, NOT_FOUND
	}
	if err != nil {
		log.WithError(err).WithField("GoogleID", googleID).Error("could not look up user")
		return UserRecord{}, BACKEND_ERROR
	}

	return UserRecord{
		UserID:       validateString(userID),
		GoogleID:     validateString(gID),
		Name:         validateString(name),
		EmailAddress: validateString(email),
		Bio:          validateString(bio),
		Icebreaker:   validateString(icebreaker),
	}, OK
}

//SetIcebreaker overwrites the icebreaker field of the user matching the
//provided external identity key. Last write wins.
func (c *Client) SetIcebreaker(googleID string, icebreaker string) Status {
	dbQuery := `UPDATE Users
				SET icebreaker = ?
				WHERE google_id = ?;`
	results, err := c.db.Exec(dbQuery, icebreaker, googleID)
	if err != nil {
		log.WithError(err).WithField("GoogleID", googleID).Error("could not save icebreaker due to error running query")
		return BACKEND_ERROR
	}
	rows, err := results.RowsAffected()
	if err != nil {
		log.WithError(err).WithField("GoogleID", googleID).Error("could not save icebreaker due to error with result set")
		return BACKEND_ERROR
	} else if rows == 0 {
		log.WithField("GoogleID", googleID).Info("could not save icebreaker as user does not exist")
		return NOT_FOUND
	}
	log.WithField("GoogleID", googleID).Info("saved icebreaker")
	return UPDATED
}

//UpdateRecord will attempt to edit certain fields of the provided user in the DB
func (c *Client) UpdateRecord(userID string, fieldsToUpdate map[string]string) Status {
	var updates string
	for k, v := range fieldsToUpdate {
		updates = fmt.Sprintf("%s%s = '%s',", updates, k, v)
	}

	updateTemplate := fmt.Sprintf(`UPDATE Users
						SET %s
						WHERE user_id = ?;`, strings.TrimSuffix(updates, ","))
	log.WithField("UserID", userID).Debugf("update query: %s", updateTemplate)
	results, err := c.db.Exec(updateTemplate, userID)
	if err != nil {
		log.WithError(err).WithField("UserID", userID).Errorf("could not update user due to error running query")
		return BACKEND_ERROR
	}
	rows, err := results.RowsAffected()
	if err != nil {
		log.WithError(err).WithField("UserID", userID).Errorf("could not update user due to error with result set")
		return BACKEND_ERROR
	} else if rows == 0 {
		log.WithField("UserID", userID).Infof("could not update user as they do not exist")
		return NOT_FOUND
	}
	log.WithField("UserID", userID).Infof("updated user as follows: %s", updates)
	return UPDATED
}

//RetrieveRecords will find all users matching the provided parameters in the DB
func (c *Client) RetrieveRecords(searchCriteria map[string]string) ([]UserRecord, Status) {
	var results []UserRecord
	var whereClause string
	clause := "WHERE "
	for k, v := range searchCriteria {
		whereClause = fmt.Sprintf("%s %s='%s'", clause, k, v)
		clause = " AND"
	}

	retrieveTemplate := fmt.Sprintf(`SELECT user_id, google_id, name, email, bio, icebreaker
						  FROM Users
						  %s;`, whereClause)
	log.Debugf("retrieve query is %s", retrieveTemplate)

	statement, err := c.db.Prepare(retrieveTemplate)
	if err != nil {
		log.WithError(err).Error("failed to prepare query template")
		return results, BACKEND_ERROR
	}
	defer statement.Close()

	rows, err := statement.Query()
	if err != nil {
		log.WithError(err).Error("failed to execute query template")
		return results, BACKEND_ERROR
	}
	defer rows.Close()

	var userID, googleID, name, email, bio, icebreaker sql.NullString
	for rows.Next() {
		rows.Scan(&userID, &googleID, &name, &email, &bio, &icebreaker)
		results = append(results, UserRecord{
			UserID:       validateString(userID),
			GoogleID:     validateString(googleID),
			Name:         validateString(name),
			EmailAddress: validateString(email),
			Bio:          validateString(bio),
			Icebreaker:   validateString(icebreaker),
		})
	}
	if len(results) == 0 {
		log.Infof("found no users matching criteria: %s", searchCriteria)
		return results, NOT_FOUND
	}

	log.Infof("users matching criteria are: %v", results)
	return results, OK
}

func validateString(value sql.NullString) string {
	if value.Valid {
		return value.String
	}
	return ""
}

//DeleteRecord will attempt to remove the provided user from the DB
func (c *Client) DeleteRecord(userID string) Status {
	deleteTemplate := `DELETE FROM Users
					   WHERE user_id = ?;`
	results, err := c.db.Exec(deleteTemplate, userID)
	if err != nil {
		log.WithError(err).WithField("UserID", userID).Error("could not delete user from db")
		return BACKEND_ERROR
	}
	rows, err := results.RowsAffected()
	if err != nil {
		log.WithError(err).WithField("UserID", userID).Error("error processing request")
		return BACKEND_ERROR
	} else if rows == 0 {
		log.WithField("UserID", userID).Info("could not delete user from db as they do not exist")
		return NOT_FOUND
	}
	log.WithField("UserID", userID).Info("user removed from db")
	return DELETED
}

//ActiveConnection will check if still connected to DB
func (c *Client) ActiveConnection() bool {
	if err := c.db.Ping(); err != nil {
		log.WithError(err).Error("could not connect to db")
		return false
	}
	return true
}
