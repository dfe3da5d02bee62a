package client

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"Mansoor88-6/labor-cost-dashboard/internal/models"

	"go.uber.org/zap"
)

// GetTimeEntries fetches all time entries matching query
func (c *Client) GetTimeEntries(query models.TimeEntryQuery) ([]models.TimeEntry, error) {
	params := url.Values{}
	if !query.From.IsZero() {
		params.Set("from", query.From.Format(models.DateLayout))
	}
	if !query.To.IsZero() {
		params.Set("to", query.To.Format(models.DateLayout))
	}
	if query.ProjectID != 0 {
		params.Set("project_id", strconv.Itoa(query.ProjectID))
	}
	if query.UserID != 0 {
		params.Set("user_id", strconv.Itoa(query.UserID))
	}

	entries, err := getPaginated[models.TimeEntry](c, "time_entries.json", "time_entries", params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch time entries: %w", err)
	}
	return entries, nil
}

// GetProjects fetches all accessible projects
func (c *Client) GetProjects() ([]models.Project, error) {
	return cached(c, CacheKeyProjects, func() ([]models.Project, error) {
		projects, err := getPaginated[models.Project](c, "projects.json", "projects", nil)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch projects: %w", err)
		}
		return projects, nil
	})
}

// GetUsers fetches all users
func (c *Client) GetUsers() ([]models.User, error) {
	return cached(c, CacheKeyUsers, func() ([]models.User, error) {
		users, err := getPaginated[models.User](c, "users.json", "users", nil)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch users: %w", err)
		}
		return users, nil
	})
}

// GetActivities fetches the time entry activity enumeration
func (c *Client) GetActivities() ([]models.Activity, error) {
	return cached(c, CacheKeyActivities, func() ([]models.Activity, error) {
		var out struct {
			Activities []models.Activity `json:"time_entry_activities"`
		}
		if err := c.getJSON("enumerations/time_entry_activities.json", nil, &out); err != nil {
			return nil, fmt.Errorf("failed to fetch activities: %w", err)
		}
		return nonNil(out.Activities), nil
	})
}

// GetIssueStatuses fetches all issue statuses
func (c *Client) GetIssueStatuses() ([]models.IssueStatus, error) {
	return cached(c, CacheKeyIssueStatuses, func() ([]models.IssueStatus, error) {
		var out struct {
			Statuses []models.IssueStatus `json:"issue_statuses"`
		}
		if err := c.getJSON("issue_statuses.json", nil, &out); err != nil {
			return nil, fmt.Errorf("failed to fetch issue statuses: %w", err)
		}
		return nonNil(out.Statuses), nil
	})
}

// GetIssuePriorities fetches the issue priority enumeration
func (c *Client) GetIssuePriorities() ([]models.IssuePriority, error) {
	return cached(c, CacheKeyIssuePriorities, func() ([]models.IssuePriority, error) {
		var out struct {
			Priorities []models.IssuePriority `json:"issue_priorities"`
		}
		if err := c.getJSON("enumerations/issue_priorities.json", nil, &out); err != nil {
			return nil, fmt.Errorf("failed to fetch issue priorities: %w", err)
		}
		return nonNil(out.Priorities), nil
	})
}

// GetProjectDetails fetches a single project
func (c *Client) GetProjectDetails(projectID int) (*models.Project, error) {
	var out struct {
		Project models.Project `json:"project"`
	}
	if err := c.getJSON(fmt.Sprintf("projects/%d.json", projectID), nil, &out); err != nil {
		return nil, fmt.Errorf("failed to fetch project %d: %w", projectID, err)
	}
	return &out.Project, nil
}

// GetProjectIssues fetches all issues of a project. An empty statusID
// requests issues in any status.
func (c *Client) GetProjectIssues(projectID int, statusID string) ([]models.Issue, error) {
	if statusID == "" {
		statusID = "*"
	}
	params := url.Values{}
	params.Set("project_id", strconv.Itoa(projectID))
	params.Set("status_id", statusID)

	issues, err := getPaginated[models.Issue](c, "issues.json", "issues", params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch issues for project %d: %w", projectID, err)
	}
	return issues, nil
}

// GetProjectTree fetches projects and arranges them by parent
func (c *Client) GetProjectTree() ([]*models.ProjectNode, error) {
	projects, err := c.GetProjects()
	if err != nil {
		return nil, err
	}
	return BuildProjectTree(projects), nil
}

// BuildProjectTree groups projects under their parent. Projects without a
// parent, or whose parent is not in the list, become roots. Input order
// is kept for roots and for each children list.
func BuildProjectTree(projects []models.Project) []*models.ProjectNode {
	nodes := make(map[int]*models.ProjectNode, len(projects))
	ordered := make([]*models.ProjectNode, 0, len(projects))
	for _, p := range projects {
		if _, dup := nodes[p.ID]; dup {
			continue
		}
		node := &models.ProjectNode{Project: p, Children: []*models.ProjectNode{}}
		nodes[p.ID] = node
		ordered = append(ordered, node)
	}

	roots := make([]*models.ProjectNode, 0)
	for _, node := range ordered {
		if node.Project.Parent != nil {
			if parent, ok := nodes[node.Project.Parent.ID]; ok && parent != node {
				node.Parent = parent
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots
}

// GetTimeEntriesForProject fetches entries of a project and, when
// includeSubprojects is set, of all its descendants. The project list is
// fetched once and reused for the whole traversal.
func (c *Client) GetTimeEntriesForProject(projectID int, from, to time.Time, includeSubprojects bool) ([]models.TimeEntry, error) {
	var children map[int][]int
	if includeSubprojects {
		projects, err := c.GetProjects()
		if err != nil {
			return nil, err
		}
		children = make(map[int][]int)
		for _, p := range projects {
			if p.Parent != nil {
				children[p.Parent.ID] = append(children[p.Parent.ID], p.ID)
			}
		}
	}

	entries := make([]models.TimeEntry, 0)
	visited := make(map[int]bool)
	queue := []int{projectID}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true

		batch, err := c.GetTimeEntries(models.TimeEntryQuery{From: from, To: to, ProjectID: id})
		if err != nil {
			return nil, err
		}
		entries = append(entries, batch...)
		next := make([]int, 0, len(children[id])+len(queue))
		next = append(next, children[id]...)
		queue = append(next, queue...)
	}

	c.logger.Debug("Fetched project time entries",
		zap.Int("project_id", projectID),
		zap.Bool("include_subprojects", includeSubprojects),
		zap.Int("projects", len(visited)),
		zap.Int("count", len(entries)),
	)
	return entries, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
