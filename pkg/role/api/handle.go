package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/render"
	"github.com/google/uuid"
	rbacerrors "github.com/tendant/simple-rbac/pkg/errors"
	"github.com/tendant/simple-rbac/pkg/role"
)

// TenantHeader carries the tenant domain of the request. A tenant query
// parameter takes precedence when both are present.
const TenantHeader = "X-Tenant-Domain"

type Handle struct {
	roleService *role.RoleService
}

func NewHandle(roleService *role.RoleService) Handle {
	return Handle{
		roleService: roleService,
	}
}

type PermissionBody struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name,omitempty"`
}

type CreateRoleRequest struct {
	Name         string           `json:"name"`
	AudienceType string           `json:"audience_type"`
	AudienceID   string           `json:"audience_id"`
	UserIDs      []string         `json:"user_ids,omitempty"`
	GroupIDs     []string         `json:"group_ids,omitempty"`
	Permissions  []PermissionBody `json:"permissions,omitempty"`
}

type UpdatePermissionsRequest struct {
	NewPermissions      []PermissionBody `json:"new_permissions"`
	ExistingPermissions []PermissionBody `json:"existing_permissions"`
}

type UpdateMembersRequest struct {
	Add    []string `json:"add,omitempty"`
	Remove []string `json:"remove,omitempty"`
}

type RoleResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	AudienceType string `json:"audience_type"`
	AudienceID   string `json:"audience_id"`
	AudienceName string `json:"audience_name,omitempty"`
}

func tenantDomain(r *http.Request) string {
	if tenant := r.URL.Query().Get("tenant"); tenant != "" {
		return tenant
	}
	return r.Header.Get(TenantHeader)
}

func toRoleResponse(info role.RoleBasicInfo) RoleResponse {
	return RoleResponse{
		ID:           info.ID.String(),
		Name:         info.Name,
		AudienceType: string(info.AudienceType),
		AudienceID:   info.AudienceID,
		AudienceName: info.AudienceName,
	}
}

func toPermissions(bodies []PermissionBody) []role.Permission {
	perms := make([]role.Permission, 0, len(bodies))
	for _, body := range bodies {
		perms = append(perms, role.Permission{Name: body.Name, DisplayName: body.DisplayName})
	}
	return perms
}

// errorResponse maps domain errors onto the shared error codes and their
// HTTP status.
func errorResponse(err error) *Response {
	code := rbacerrors.ErrCodeInternal
	switch {
	case errors.Is(err, role.ErrRoleNotFound):
		code = rbacerrors.ErrCodeRoleNotFound
	case errors.As(err, new(role.ErrRoleAlreadyExists)):
		code = rbacerrors.ErrCodeRoleAlreadyExists
	case errors.As(err, new(role.ErrUnresolvableIdentity)):
		code = rbacerrors.ErrCodeUnresolvableIdentity
	case errors.As(err, new(role.ErrTenantMismatch)):
		code = rbacerrors.ErrCodeTenantMismatch
	case errors.As(err, new(role.ErrInvalidPage)):
		code = rbacerrors.ErrCodeInvalidPage
	case errors.As(err, new(role.ErrStorageUnavailable)):
		code = rbacerrors.ErrCodeStorageUnavailable
	case errors.Is(err, role.ErrEmptyRoleName),
		errors.Is(err, role.ErrEmptyTenantDomain),
		errors.Is(err, role.ErrEmptyAudienceID):
		code = rbacerrors.ErrCodeInvalidInput
	}

	return &Response{
		Code: rbacerrors.MapErrorCodeToHTTPStatus(code),
		body: map[string]string{"code": string(code), "error": err.Error()},
	}
}

// Get a page of roles
// (GET /api/roles)
func (h Handle) GetRoles(w http.ResponseWriter, r *http.Request) *Response {
	query := r.URL.Query()
	params := role.ListRolesParams{
		Filter:       query.Get("filter"),
		SortOrder:    query.Get("sort"),
		TenantDomain: tenantDomain(r),
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return &Response{
				Code: http.StatusBadRequest,
				body: map[string]string{"error": "Invalid limit"},
			}
		}
		params.Limit = limit
	}
	if raw := query.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil {
			return &Response{
				Code: http.StatusBadRequest,
				body: map[string]string{"error": "Invalid offset"},
			}
		}
		params.Offset = offset
	}

	roles, err := h.roleService.GetRoles(r.Context(), params)
	if err != nil {
		slog.Error("Failed getting roles", "error", err, "tenant", params.TenantDomain)
		return errorResponse(err)
	}

	response := make([]RoleResponse, 0, len(roles))
	for _, info := range roles {
		response = append(response, toRoleResponse(info))
	}
	return &Response{
		Code: http.StatusOK,
		body: response,
	}
}

// Create a new role
// (POST /api/roles)
func (h Handle) PostRoles(w http.ResponseWriter, r *http.Request) *Response {
	var request CreateRoleRequest
	if err := render.DecodeJSON(r.Body, &request); err != nil {
		return &Response{
			Code: http.StatusBadRequest,
			body: map[string]string{"error": "Invalid request body"},
		}
	}

	info, err := h.roleService.AddRole(r.Context(), request.Name,
		request.UserIDs, request.GroupIDs, toPermissions(request.Permissions),
		role.AudienceType(request.AudienceType), request.AudienceID, tenantDomain(r))
	if err != nil {
		slog.Error("Failed creating role", "error", err, "name", request.Name)
		return errorResponse(err)
	}

	return &Response{
		Code: http.StatusCreated,
		body: toRoleResponse(info),
	}
}

// Check whether a role name is taken in an audience scope
// (GET /api/roles/exists)
func (h Handle) GetRolesExists(w http.ResponseWriter, r *http.Request) *Response {
	query := r.URL.Query()
	exists, err := h.roleService.IsExistingRoleName(r.Context(), query.Get("name"),
		role.AudienceType(query.Get("audience_type")), query.Get("audience_id"), tenantDomain(r))
	if err != nil {
		return errorResponse(err)
	}

	return &Response{
		Code: http.StatusOK,
		body: map[string]bool{"exists": exists},
	}
}

// Get role details by UUID
// (GET /api/roles/{id})
func (h Handle) GetRolesID(w http.ResponseWriter, r *http.Request, id string) *Response {
	roleID, err := uuid.Parse(id)
	if err != nil {
		return &Response{
			Code: http.StatusBadRequest,
			body: map[string]string{"error": "Invalid UUID format"},
		}
	}

	info, err := h.roleService.GetRoleBasicInfoByID(r.Context(), roleID, tenantDomain(r))
	if err != nil {
		return errorResponse(err)
	}

	return &Response{
		Code: http.StatusOK,
		body: toRoleResponse(info),
	}
}

// Delete role by UUID
// (DELETE /api/roles/{id})
func (h Handle) DeleteRolesID(w http.ResponseWriter, r *http.Request, id string) *Response {
	roleID, err := uuid.Parse(id)
	if err != nil {
		return &Response{
			Code: http.StatusBadRequest,
			body: map[string]string{"error": "Invalid UUID format"},
		}
	}

	if err := h.roleService.DeleteRole(r.Context(), roleID, tenantDomain(r)); err != nil {
		slog.Error("Failed deleting role", "error", err, "roleId", roleID)
		return errorResponse(err)
	}

	return &Response{
		Code: http.StatusOK,
		body: map[string]string{"message": "Role deleted successfully"},
	}
}

// Get the permission list of a role
// (GET /api/roles/{id}/permissions)
func (h Handle) GetRolesIDPermissions(w http.ResponseWriter, r *http.Request, id string) *Response {
	roleID, err := uuid.Parse(id)
	if err != nil {
		return &Response{
			Code: http.StatusBadRequest,
			body: map[string]string{"error": "Invalid UUID format"},
		}
	}

	perms, err := h.roleService.GetPermissionListOfRole(r.Context(), roleID, tenantDomain(r))
	if err != nil {
		return errorResponse(err)
	}

	response := make([]PermissionBody, 0, len(perms))
	for _, perm := range perms {
		response = append(response, PermissionBody{Name: perm.Name, DisplayName: perm.DisplayName})
	}
	return &Response{
		Code: http.StatusOK,
		body: response,
	}
}

// Replace the permission list of a role with diff semantics
// (PUT /api/roles/{id}/permissions)
func (h Handle) PutRolesIDPermissions(w http.ResponseWriter, r *http.Request, id string) *Response {
	roleID, err := uuid.Parse(id)
	if err != nil {
		return &Response{
			Code: http.StatusBadRequest,
			body: map[string]string{"error": "Invalid UUID format"},
		}
	}

	var request UpdatePermissionsRequest
	if err := render.DecodeJSON(r.Body, &request); err != nil {
		return &Response{
			Code: http.StatusBadRequest,
			body: map[string]string{"error": "Invalid request body"},
		}
	}

	err = h.roleService.UpdatePermissionListOfRole(r.Context(), roleID,
		toPermissions(request.NewPermissions), toPermissions(request.ExistingPermissions), tenantDomain(r))
	if err != nil {
		slog.Error("Failed updating role permissions", "error", err, "roleId", roleID)
		return errorResponse(err)
	}

	return &Response{
		Code: http.StatusOK,
		body: map[string]string{"message": "Permissions updated successfully"},
	}
}

// Get the user names bound to a role
// (GET /api/roles/{id}/users)
func (h Handle) GetRolesIDUsers(w http.ResponseWriter, r *http.Request, id string) *Response {
	roleID, err := uuid.Parse(id)
	if err != nil {
		return &Response{
			Code: http.StatusBadRequest,
			body: map[string]string{"error": "Invalid UUID format"},
		}
	}

	users, err := h.roleService.GetUserListOfRole(r.Context(), roleID, tenantDomain(r))
	if err != nil {
		return errorResponse(err)
	}

	return &Response{
		Code: http.StatusOK,
		body: map[string][]string{"users": users},
	}
}

// Add and remove role users by user name
// (PUT /api/roles/{id}/users)
func (h Handle) PutRolesIDUsers(w http.ResponseWriter, r *http.Request, id string) *Response {
	roleID, err := uuid.Parse(id)
	if err != nil {
		return &Response{
			Code: http.StatusBadRequest,
			body: map[string]string{"error": "Invalid UUID format"},
		}
	}

	var request UpdateMembersRequest
	if err := render.DecodeJSON(r.Body, &request); err != nil {
		return &Response{
			Code: http.StatusBadRequest,
			body: map[string]string{"error": "Invalid request body"},
		}
	}

	err = h.roleService.UpdateUserListOfRole(r.Context(), roleID, request.Add, request.Remove, tenantDomain(r))
	if err != nil {
		slog.Error("Failed updating role users", "error", err, "roleId", roleID)
		return errorResponse(err)
	}

	return &Response{
		Code: http.StatusOK,
		body: map[string]string{"message": "Role users updated successfully"},
	}
}

// Get the group names bound to a role
// (GET /api/roles/{id}/groups)
func (h Handle) GetRolesIDGroups(w http.ResponseWriter, r *http.Request, id string) *Response {
	roleID, err := uuid.Parse(id)
	if err != nil {
		return &Response{
			Code: http.StatusBadRequest,
			body: map[string]string{"error": "Invalid UUID format"},
		}
	}

	groups, err := h.roleService.GetGroupListOfRole(r.Context(), roleID, tenantDomain(r))
	if err != nil {
		return errorResponse(err)
	}

	return &Response{
		Code: http.StatusOK,
		body: map[string][]string{"groups": groups},
	}
}

// Add and remove role groups by group name
// (PUT /api/roles/{id}/groups)
func (h Handle) PutRolesIDGroups(w http.ResponseWriter, r *http.Request, id string) *Response {
	roleID, err := uuid.Parse(id)
	if err != nil {
		return &Response{
			Code: http.StatusBadRequest,
			body: map[string]string{"error": "Invalid UUID format"},
		}
	}

	var request UpdateMembersRequest
	if err := render.DecodeJSON(r.Body, &request); err != nil {
		return &Response{
			Code: http.StatusBadRequest,
			body: map[string]string{"error": "Invalid request body"},
		}
	}

	err = h.roleService.UpdateGroupListOfRole(r.Context(), roleID, request.Add, request.Remove, tenantDomain(r))
	if err != nil {
		slog.Error("Failed updating role groups", "error", err, "roleId", roleID)
		return errorResponse(err)
	}

	return &Response{
		Code: http.StatusOK,
		body: map[string]string{"message": "Role groups updated successfully"},
	}
}
