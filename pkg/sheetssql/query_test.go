package sheetssql

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/sheets/v4"
)

// mockSheetsClient implements a mock for testing
type mockSheetsClient struct {
	getValuesFunc         func(spreadsheetID, sheetRange string) ([][]interface{}, error)
	appendRowsFunc        func(spreadsheetID, sheetRange string, values [][]interface{}) error
	batchUpdateValuesFunc func(spreadsheetID string, data []*sheets.ValueRange) error
	createSheetFunc       func(spreadsheetID, sheetTitle string) (int64, error)
	sheets                []string
}

func (m *mockSheetsClient) GetValues(ctx context.Context, spreadsheetID, sheetRange string) ([][]interface{}, error) {
	if m.getValuesFunc != nil {
		return m.getValuesFunc(spreadsheetID, sheetRange)
	}
	return nil, nil
}

func (m *mockSheetsClient) AppendRows(ctx context.Context, spreadsheetID, sheetRange string, values [][]interface{}) error {
	if m.appendRowsFunc != nil {
		return m.appendRowsFunc(spreadsheetID, sheetRange, values)
	}
	return nil
}

func (m *mockSheetsClient) BatchUpdateValues(ctx context.Context, spreadsheetID string, data []*sheets.ValueRange) error {
	if m.batchUpdateValuesFunc != nil {
		return m.batchUpdateValuesFunc(spreadsheetID, data)
	}
	return nil
}

func (m *mockSheetsClient) CreateSheet(ctx context.Context, spreadsheetID, sheetTitle string) (int64, error) {
	if m.createSheetFunc != nil {
		return m.createSheetFunc(spreadsheetID, sheetTitle)
	}
	return 0, nil
}

func (m *mockSheetsClient) ListSheets(ctx context.Context, spreadsheetID string) ([]string, error) {
	return m.sheets, nil
}

// Test model
type TestPerson struct {
	Row    int    `ssql_row:"true"`
	Name   string `ssql_header:"name"`
	Age    int    `ssql_header:"age"`
	Active bool   `ssql_header:"active"`
}

func TestSetFieldValue_String(t *testing.T) {
	type TestStruct struct {
		Name string
	}

	var s TestStruct
	field := reflect.ValueOf(&s).Elem().Field(0)

	err := setFieldValue(field, " test value ")
	assert.NoError(t, err)
	assert.Equal(t, "test value", s.Name)
}

func TestSetFieldValue_Int(t *testing.T) {
	type TestStruct struct {
		Count int
	}

	var s TestStruct
	field := reflect.ValueOf(&s).Elem().Field(0)

	err := setFieldValue(field, "42")
	assert.NoError(t, err)
	assert.Equal(t, 42, s.Count)

	err = setFieldValue(field, "")
	assert.NoError(t, err)
	assert.Equal(t, 0, s.Count)
}

func TestSetFieldValue_InvalidInt(t *testing.T) {
	type TestStruct struct {
		Count int
	}

	var s TestStruct
	field := reflect.ValueOf(&s).Elem().Field(0)

	err := setFieldValue(field, "not a number")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse int")
}

func TestSetFieldValue_NonStringCell(t *testing.T) {
	type TestStruct struct {
		Hours float64
	}

	var s TestStruct
	field := reflect.ValueOf(&s).Elem().Field(0)

	err := setFieldValue(field, 8.5)
	assert.NoError(t, err)
	assert.Equal(t, 8.5, s.Hours)
}

func TestGetTableAs_ValidData(t *testing.T) {
	mock := &mockSheetsClient{
		getValuesFunc: func(spreadsheetID, sheetRange string) ([][]interface{}, error) {
			assert.Equal(t, "'people'", sheetRange)
			return [][]interface{}{
				{"name", "age", "active"},
				{"Alice", "30", "true"},
				{"Bob", "25", "false"},
			}, nil
		},
	}

	db := &DB{client: mock, spreadsheetID: "test-sheet"}

	results, err := GetTableAs[TestPerson](context.Background(), db, "people")
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, TestPerson{Row: 2, Name: "Alice", Age: 30, Active: true}, results[0])
	assert.Equal(t, TestPerson{Row: 3, Name: "Bob", Age: 25, Active: false}, results[1])
}

func TestGetTableAs_HeadersCaseInsensitiveAndReordered(t *testing.T) {
	mock := &mockSheetsClient{
		getValuesFunc: func(spreadsheetID, sheetRange string) ([][]interface{}, error) {
			return [][]interface{}{
				{" Active ", "NAME", "notes", "Age"},
				{"true", "Alice", "extra", "30"},
			}, nil
		},
	}

	db := &DB{client: mock, spreadsheetID: "test-sheet"}

	results, err := GetTableAs[TestPerson](context.Background(), db, "people")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Alice", results[0].Name)
	assert.Equal(t, 30, results[0].Age)
	assert.True(t, results[0].Active)
}

func TestGetTableAs_SkipsBlankRowsKeepingRowNumbers(t *testing.T) {
	mock := &mockSheetsClient{
		getValuesFunc: func(spreadsheetID, sheetRange string) ([][]interface{}, error) {
			return [][]interface{}{
				{"name", "age", "active"},
				{"Alice", "30"},
				{},
				{"", " "},
				{"Charlie", "35", "true"},
			}, nil
		},
	}

	db := &DB{client: mock, spreadsheetID: "test-sheet"}

	results, err := GetTableAs[TestPerson](context.Background(), db, "people")
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, 2, results[0].Row)
	assert.False(t, results[0].Active)
	assert.Equal(t, 5, results[1].Row)
	assert.Equal(t, "Charlie", results[1].Name)
}

func TestGetTableAs_MissingColumn(t *testing.T) {
	mock := &mockSheetsClient{
		getValuesFunc: func(spreadsheetID, sheetRange string) ([][]interface{}, error) {
			return [][]interface{}{
				{"name", "age"},
				{"Alice", "30"},
			}, nil
		},
	}

	db := &DB{client: mock, spreadsheetID: "test-sheet"}

	_, err := GetTableAs[TestPerson](context.Background(), db, "people")
	var missing *MissingColumnError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "active", missing.Column)
	assert.Equal(t, "people", missing.Table)
}

func TestGetTableAs_EmptySheetIsMissingColumns(t *testing.T) {
	db := &DB{client: &mockSheetsClient{}, spreadsheetID: "test-sheet"}

	_, err := GetTableAs[TestPerson](context.Background(), db, "people")
	var missing *MissingColumnError
	assert.ErrorAs(t, err, &missing)
}

func TestGetTableAs_HeaderOnly(t *testing.T) {
	mock := &mockSheetsClient{
		getValuesFunc: func(spreadsheetID, sheetRange string) ([][]interface{}, error) {
			return [][]interface{}{{"name", "age", "active"}}, nil
		},
	}

	db := &DB{client: mock, spreadsheetID: "test-sheet"}

	results, err := GetTableAs[TestPerson](context.Background(), db, "people")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestGetTableAs_BadCell(t *testing.T) {
	mock := &mockSheetsClient{
		getValuesFunc: func(spreadsheetID, sheetRange string) ([][]interface{}, error) {
			return [][]interface{}{
				{"name", "age", "active"},
				{"Alice", "thirty", "true"},
			}, nil
		},
	}

	db := &DB{client: mock, spreadsheetID: "test-sheet"}

	_, err := GetTableAs[TestPerson](context.Background(), db, "people")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2, column age")
}

type Employee struct {
	Name string `ssql_header:"Name"`
	Team string `ssql_header:"Team"`
}

func TestInsertModel_FollowsLiveHeaderOrder(t *testing.T) {
	var appended [][]interface{}
	var appendRange string
	mock := &mockSheetsClient{
		getValuesFunc: func(spreadsheetID, sheetRange string) ([][]interface{}, error) {
			assert.Equal(t, "'employee'!1:1", sheetRange)
			return [][]interface{}{{"team", "comments", "name"}}, nil
		},
		appendRowsFunc: func(spreadsheetID, sheetRange string, values [][]interface{}) error {
			appendRange = sheetRange
			appended = values
			return nil
		},
	}

	db := &DB{client: mock, spreadsheetID: "test-sheet"}

	err := InsertModel(context.Background(), db, Employee{Name: "Ana", Team: "Night"})
	require.NoError(t, err)
	assert.Equal(t, "'employee'", appendRange)
	require.Len(t, appended, 1)
	assert.Equal(t, []interface{}{"Night", "", "Ana"}, appended[0])
}

func TestInsertModel_MissingColumn(t *testing.T) {
	mock := &mockSheetsClient{
		getValuesFunc: func(spreadsheetID, sheetRange string) ([][]interface{}, error) {
			return [][]interface{}{{"name"}}, nil
		},
		appendRowsFunc: func(spreadsheetID, sheetRange string, values [][]interface{}) error {
			t.Fatal("append must not be called")
			return nil
		},
	}

	db := &DB{client: mock, spreadsheetID: "test-sheet"}

	err := InsertModel(context.Background(), db, Employee{Name: "Ana", Team: "Night"})
	var missing *MissingColumnError
	assert.ErrorAs(t, err, &missing)
}
