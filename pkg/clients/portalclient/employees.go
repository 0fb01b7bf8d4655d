package portalclient

import (
	"context"
	"net/url"

	"github.com/jakechorley/volunteer-portal/pkg/core/model"
)

func (c *Client) GetEmployee(ctx context.Context, employeeID string) (*model.Employee, error) {
	var employee model.Employee
	query := url.Values{"employeeId": {employeeID}}
	if err := c.getJSON(ctx, "Employee/GetEmployeeById", query, &employee); err != nil {
		return nil, err
	}
	return &employee, nil
}
