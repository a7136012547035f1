package repository

import (
	"context"
	"database/sql"
	"errors"

	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
)

// SQLiteDirectory is a file-backed Directory for single-binary deployments
// and the one-shot CLI, where standing up Postgres is not worth it.
type SQLiteDirectory struct {
	db *sql.DB
}

// OpenSQLiteDirectory opens the customer directory database at path.
func OpenSQLiteDirectory(path string) (*SQLiteDirectory, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, common.WrapError(err, "open sqlite directory")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, common.WrapError(err, "configure sqlite directory")
		}
	}
	return &SQLiteDirectory{db: db}, nil
}

func (d *SQLiteDirectory) Close() error { return d.db.Close() }

func (d *SQLiteDirectory) FindIndividual(ctx context.Context, firstName, lastName string) (*entity.IndividualDetail, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT `+individualColumns+`
		FROM "IndividualCustomers"
		WHERE lower("FirstName") LIKE '%' || lower(?) || '%'
		  AND lower("LastName") LIKE '%' || lower(?) || '%'
		ORDER BY "BusinessEntityID"
		LIMIT 1`, firstName, lastName)

	var ind entity.IndividualDetail
	err := row.Scan(
		&ind.BusinessEntityID, &ind.FirstName, &ind.MiddleName, &ind.LastName,
		&ind.AddressType, &ind.AddressLine1, &ind.AddressLine2, &ind.City,
		&ind.StateProvinceName, &ind.PostalCode, &ind.CountryRegionName,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ind, nil
}

func (d *SQLiteDirectory) FindStore(ctx context.Context, name string) (*entity.StoreDetail, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT `+storeColumns+`
		FROM "StoreCustomers"
		WHERE lower("Name") LIKE '%' || lower(?) || '%'
		ORDER BY "BusinessEntityID"
		LIMIT 1`, name)

	var st entity.StoreDetail
	err := row.Scan(
		&st.BusinessEntityID, &st.Name,
		&st.AddressType, &st.AddressLine1, &st.AddressLine2, &st.City,
		&st.StateProvinceName, &st.PostalCode, &st.CountryRegionName,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (d *SQLiteDirectory) CustomerByPersonID(ctx context.Context, businessEntityID int64) (*entity.Customer, error) {
	return d.customerBy(ctx, `"PersonID"`, businessEntityID)
}

func (d *SQLiteDirectory) CustomerByStoreID(ctx context.Context, businessEntityID int64) (*entity.Customer, error) {
	return d.customerBy(ctx, `"StoreID"`, businessEntityID)
}

func (d *SQLiteDirectory) customerBy(ctx context.Context, column string, id int64) (*entity.Customer, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT "CustomerID", "PersonID", "StoreID", "TerritoryID", "AccountNumber"
		FROM "Customers"
		WHERE `+column+` = ?
		ORDER BY "CustomerID"
		LIMIT 1`, id)

	var c entity.Customer
	err := row.Scan(&c.CustomerID, &c.PersonID, &c.StoreID, &c.TerritoryID, &c.AccountNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
