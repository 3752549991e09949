package commands

import (
	"database/sql"
	"fmt"

	contextutils "feedbackportal/internal/utils"
)

// maskDatabaseURL hides the credential portion of a database URL for display
func maskDatabaseURL(url string) string {
	return contextutils.MaskDatabaseURL(url)
}

// getDatabaseInfo returns database connection information
func getDatabaseInfo(db *sql.DB) string {
	if db == nil {
		return "Not connected"
	}

	var dbName string
	err := db.QueryRow("SELECT current_database()").Scan(&dbName)
	if err != nil {
		return "Connected (unknown database)"
	}

	var host string
	err = db.QueryRow("SELECT inet_server_addr()::text").Scan(&host)
	if err != nil {
		return fmt.Sprintf("Connected to %s", dbName)
	}

	return fmt.Sprintf("Connected to %s on %s", dbName, host)
}
