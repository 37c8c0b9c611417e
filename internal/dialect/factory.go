package dialect

import "fmt"

// Get returns the appropriate Dialect implementation based on driver name.
func Get(driver string) (Dialect, error) {
	switch driver {
	case "postgres":
		return &PostgresDialect{}, nil
	case "sqlserver", "mssql":
		return &MSSQLDialect{}, nil
	case "oracle":
		return &OracleDialect{}, nil
	case "mysql", "mariadb":
		return &MysqlDialect{}, nil
	case "db2":
		return &DB2Dialect{}, nil
	default:
		return nil, fmt.Errorf("unknown dialect %q", driver)
	}
}

// Ensure interface implementation
var _ Dialect = (*MysqlDialect)(nil)
var _ Dialect = (*PostgresDialect)(nil)
var _ Dialect = (*MSSQLDialect)(nil)
var _ Dialect = (*OracleDialect)(nil)
var _ Dialect = (*DB2Dialect)(nil)
