package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/projectgate/internal/common"
	"github.com/dmitrijs2005/projectgate/internal/netx"
)

var errUsage = errors.New("usage")

func (a *App) fail(err error) error {
	switch {
	case errors.Is(err, netx.ErrUnavailable):
		fmt.Fprintln(a.out, "Server unavailable")
	case errors.Is(err, common.ErrUnauthenticated):
		fmt.Fprintln(a.out, "Session expired, please log in again")
	default:
		fmt.Fprintf(a.out, "error: %v\n", err)
	}
	return err
}

func (a *App) usage(text string) error {
	fmt.Fprintln(a.out, "Usage:", text)
	return errUsage
}

func (a *App) credentials() (string, []byte, error) {
	userName, err := GetSimpleText(a.reader, "Enter user name", a.out)
	if err != nil {
		return "", nil, err
	}
	password, err := GetPassword(a.out)
	if err != nil {
		return "", nil, err
	}
	return userName, password, nil
}

func (a *App) Signup(ctx context.Context) error {
	userName, password, err := a.credentials()
	if err != nil {
		return a.fail(err)
	}
	defer common.WipeByteArray(password)

	if err := a.client.Signup(ctx, userName, string(password)); err != nil {
		return a.fail(err)
	}
	a.userName = userName
	fmt.Fprintln(a.out, "Signed up and logged in")
	return nil
}

func (a *App) Login(ctx context.Context) error {
	userName, password, err := a.credentials()
	if err != nil {
		return a.fail(err)
	}
	defer common.WipeByteArray(password)

	if err := a.client.Login(ctx, userName, string(password)); err != nil {
		return a.fail(err)
	}
	a.userName = userName
	fmt.Fprintln(a.out, "Login successful")
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	err := a.client.Logout(ctx)
	a.userName = ""
	if err != nil {
		return a.fail(err)
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	me, err := a.client.Me(ctx)
	if err != nil {
		return a.fail(err)
	}
	fmt.Fprintf(a.out, "%s (role: %s, admin: %t)\n", me.Message, me.Role, me.IsAdmin)
	return nil
}

func (a *App) ListProjects(ctx context.Context) error {
	list, err := a.client.ListProjects(ctx)
	if err != nil {
		return a.fail(err)
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No projects")
		return nil
	}
	for _, p := range list {
		fmt.Fprintf(a.out, "%d\t%s\t%s\n", p.ID, p.Name, p.Description)
	}
	return nil
}

func (a *App) projectInput() (string, string, error) {
	name, err := GetSimpleText(a.reader, "Project name", a.out)
	if err != nil {
		return "", "", err
	}
	description, err := GetSimpleText(a.reader, "Description", a.out)
	if err != nil {
		return "", "", err
	}
	return name, description, nil
}

func (a *App) CreateProject(ctx context.Context) error {
	name, description, err := a.projectInput()
	if err != nil {
		return a.fail(err)
	}
	p, err := a.client.CreateProject(ctx, name, description)
	if err != nil {
		return a.fail(err)
	}
	fmt.Fprintf(a.out, "Created project %d\n", p.ID)
	return nil
}

func parseID(args []string) (int64, bool) {
	if len(args) != 1 {
		return 0, false
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	return id, err == nil && id > 0
}

func (a *App) UpdateProject(ctx context.Context, args []string) error {
	id, ok := parseID(args)
	if !ok {
		return a.usage("update <id>")
	}
	name, description, err := a.projectInput()
	if err != nil {
		return a.fail(err)
	}
	p, err := a.client.UpdateProject(ctx, id, name, description)
	if err != nil {
		return a.fail(err)
	}
	fmt.Fprintf(a.out, "Updated project %d\n", p.ID)
	return nil
}

func (a *App) DeleteProject(ctx context.Context, args []string) error {
	id, ok := parseID(args)
	if !ok {
		return a.usage("delete <id>")
	}
	if err := a.client.DeleteProject(ctx, id); err != nil {
		return a.fail(err)
	}
	fmt.Fprintf(a.out, "Deleted project %d\n", id)
	return nil
}

func (a *App) SetRole(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return a.usage("role <username> <role>")
	}
	u, err := a.client.SetRole(ctx, args[0], args[1])
	if err != nil {
		return a.fail(err)
	}
	fmt.Fprintf(a.out, "%s is now %s\n", u.Username, u.Role)
	return nil
}
