package security

import (
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/aryan0dhankhar/pgledger/internal/domain"
)

// Permission represents an action permission
type Permission string

const (
	PermReadLedger        Permission = "read_ledger"
	PermManageTenants     Permission = "manage_tenants"
	PermRecordPayments    Permission = "record_payments"
	PermEditRents         Permission = "edit_rents"
	PermManageRooms       Permission = "manage_rooms"
	PermManageAccounts    Permission = "manage_accounts"
	PermExportCollections Permission = "export_collections"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[domain.Role][]Permission{
	domain.RoleOwner: {
		PermReadLedger,
		PermManageTenants,
		PermRecordPayments,
		PermEditRents,
		PermManageRooms,
		PermManageAccounts,
		PermExportCollections,
	},
	domain.RoleManager: {
		PermReadLedger,
		PermManageTenants,
		PermRecordPayments,
		PermExportCollections,
	},
	domain.RoleViewer: {
		PermReadLedger,
	},
}

// AuthorizationService handles authorization checks
type AuthorizationService struct {
	logger *slog.Logger
}

// NewAuthorizationService creates a new authorization service
func NewAuthorizationService(logger *slog.Logger) *AuthorizationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthorizationService{logger: logger}
}

// HasPermission checks if a role has a specific permission
func (as *AuthorizationService) HasPermission(role domain.Role, permission Permission) bool {
	return slices.Contains(RolePermissions[role], permission)
}

// ValidatePermission validates that a role has a specific permission
func (as *AuthorizationService) ValidatePermission(role domain.Role, permission Permission) error {
	if !as.HasPermission(role, permission) {
		as.logger.Warn("permission denied",
			slog.String("role", string(role)),
			slog.String("permission", string(permission)),
		)
		return fmt.Errorf("permission denied: %s role cannot %s", role, permission)
	}
	return nil
}

// GetRolePermissions returns all permissions for a role
func (as *AuthorizationService) GetRolePermissions(role domain.Role) []Permission {
	return RolePermissions[role]
}

// PermissionFor maps an API request to the permission it needs
func PermissionFor(method, path string) Permission {
	switch {
	case strings.HasPrefix(path, "/api/rents/export"):
		return PermExportCollections
	case method == http.MethodGet || method == http.MethodHead:
		return PermReadLedger
	case strings.HasPrefix(path, "/api/tenants"):
		return PermManageTenants
	case strings.HasPrefix(path, "/api/rents") && strings.HasSuffix(path, "/pay"):
		return PermRecordPayments
	case path == "/api/rents" && method == http.MethodPost:
		return PermRecordPayments
	case strings.HasPrefix(path, "/api/rents"):
		return PermEditRents
	case strings.HasPrefix(path, "/api/rooms"):
		return PermManageRooms
	case strings.HasPrefix(path, "/api/accounts"):
		return PermManageAccounts
	default:
		return PermReadLedger
	}
}
