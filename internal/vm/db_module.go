package vm

import (
	"database/sql"
	"fmt"
)

// registerDBModule exposes the SQL layer: open returns a connection handle,
// query/query_one return rows as dictionaries, exec returns the affected
// row count. transaction runs a list of statements atomically.
func (vm *VM) registerDBModule() {
	vm.nativeModules["db"] = map[string]Value{
		"open": native("open", 2, func(args []Value) (Value, error) {
			driver, ok1 := args[0].(string)
			dsn, ok2 := args[1].(string)
			if !ok1 || !ok2 {
				return nil, fmt.Errorf("db.open expects (driver, dsn) strings")
			}
			id, err := vm.db.Open(driver, dsn)
			if err != nil {
				return nil, err
			}
			return id, nil
		}),
		"exec": native("exec", Variadic, func(args []Value) (Value, error) {
			id, query, params, err := dbCallArgs("db.exec", args)
			if err != nil {
				return nil, err
			}
			affected, err := vm.db.Execute(id, query, params...)
			if err != nil {
				return nil, err
			}
			return float64(affected), nil
		}),
		"query": native("query", Variadic, func(args []Value) (Value, error) {
			id, query, params, err := dbCallArgs("db.query", args)
			if err != nil {
				return nil, err
			}
			rows, err := vm.db.Query(id, query, params...)
			if err != nil {
				return nil, err
			}
			elements := make([]Value, len(rows))
			for i, row := range rows {
				elements[i] = rowToDict(row)
			}
			return NewList(elements), nil
		}),
		"query_one": native("query_one", Variadic, func(args []Value) (Value, error) {
			id, query, params, err := dbCallArgs("db.query_one", args)
			if err != nil {
				return nil, err
			}
			row, err := vm.db.QueryOne(id, query, params...)
			if err != nil {
				return nil, err
			}
			return rowToDict(row), nil
		}),
		"transaction": native("transaction", 2, func(args []Value) (Value, error) {
			id, ok1 := args[0].(string)
			statements, ok2 := args[1].(*List)
			if !ok1 || !ok2 {
				return nil, fmt.Errorf("db.transaction expects (handle, statements)")
			}
			var affected int64
			err := vm.db.Transaction(id, func(tx *sql.Tx) error {
				for _, element := range statements.Elements {
					query, params, err := txStatement(element)
					if err != nil {
						return err
					}
					result, err := tx.Exec(query, params...)
					if err != nil {
						return err
					}
					count, err := result.RowsAffected()
					if err != nil {
						return err
					}
					affected += count
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
			return float64(affected), nil
		}),
		"close": native("close", 1, func(args []Value) (Value, error) {
			id, ok := args[0].(string)
			if !ok {
				return nil, fmt.Errorf("db.close expects a connection handle")
			}
			if err := vm.db.Close(id); err != nil {
				return nil, err
			}
			return true, nil
		}),
	}
}

// dbCallArgs splits (handle, query, params...) and converts the trailing
// script values into driver arguments.
func dbCallArgs(name string, args []Value) (string, string, []interface{}, error) {
	if len(args) < 2 {
		return "", "", nil, fmt.Errorf("%s expects at least (handle, query)", name)
	}
	id, ok1 := args[0].(string)
	query, ok2 := args[1].(string)
	if !ok1 || !ok2 {
		return "", "", nil, fmt.Errorf("%s expects string handle and query", name)
	}
	params := make([]interface{}, len(args)-2)
	for i, arg := range args[2:] {
		params[i] = arg
	}
	return id, query, params, nil
}

// txStatement accepts either a plain SQL string or a list whose first
// element is the SQL and whose remaining elements are bind parameters.
func txStatement(element Value) (string, []interface{}, error) {
	switch stmt := element.(type) {
	case string:
		return stmt, nil, nil
	case *List:
		if len(stmt.Elements) == 0 {
			return "", nil, fmt.Errorf("db.transaction statement list is empty")
		}
		query, ok := stmt.Elements[0].(string)
		if !ok {
			return "", nil, fmt.Errorf("db.transaction statement must start with a query string")
		}
		params := make([]interface{}, len(stmt.Elements)-1)
		for i, param := range stmt.Elements[1:] {
			params[i] = param
		}
		return query, params, nil
	}
	return "", nil, fmt.Errorf("db.transaction statements must be strings or lists, got %s", TypeName(element))
}

// rowToDict converts a scanned row into a script dictionary, widening
// integer column values to float64.
func rowToDict(row map[string]interface{}) *Dict {
	pairs := make(map[Value]Value, len(row))
	for col, val := range row {
		pairs[col] = driverValue(val)
	}
	return NewDict(pairs)
}

func driverValue(val interface{}) Value {
	switch v := val.(type) {
	case nil:
		return nil
	case bool:
		return v
	case int64:
		return float64(v)
	case float64:
		return v
	case string:
		return v
	case []byte:
		return string(v)
	}
	return fmt.Sprintf("%v", val)
}
