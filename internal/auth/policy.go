package auth

// Action names something a caller may attempt. Route level actions and the
// per-recipe operations share one table so every role decision is made here.
type Action string

const (
	ActionViewSelf          Action = "users.me"
	ActionManageUsers       Action = "users.manage"
	ActionManageRawMaterial Action = "raw_materials.manage"

	ActionListRecipes   Action = "recipes.list"
	ActionCreateRecipe  Action = "recipes.create"
	ActionAccessRecipe  Action = "recipes.access"
	ActionViewAccessLog Action = "recipe_access_log.view"

	ActionRecipeView   Action = "recipe.view"
	ActionRecipeEdit   Action = "recipe.edit"
	ActionRecipeDelete Action = "recipe.delete"
	ActionRecipeOther  Action = "recipe.other"

	ActionRecordQuality  Action = "quality.record"
	ActionApproveQuality Action = "quality.approve"

	ActionRecordScrap Action = "scrap.record"
	ActionReviewScrap Action = "scrap.review"
)

var policy = map[Action][]Role{
	ActionViewSelf:          {RoleAdmin, RoleOperator, RoleQualityControl},
	ActionManageUsers:       {RoleAdmin},
	ActionManageRawMaterial: {RoleAdmin, RoleOperator},

	ActionListRecipes:   {RoleAdmin, RoleOperator},
	ActionCreateRecipe:  {RoleAdmin},
	ActionAccessRecipe:  {RoleAdmin, RoleOperator},
	ActionViewAccessLog: {RoleAdmin},

	ActionRecipeView:   {RoleAdmin, RoleOperator},
	ActionRecipeEdit:   {RoleAdmin},
	ActionRecipeDelete: {RoleAdmin},
	ActionRecipeOther:  {RoleAdmin},

	ActionRecordQuality:  {RoleAdmin, RoleQualityControl},
	ActionApproveQuality: {RoleAdmin},

	ActionRecordScrap: {RoleAdmin, RoleOperator},
	ActionReviewScrap: {RoleAdmin},
}

// Permits reports whether role may perform action. Unknown actions are denied.
func Permits(role Role, action Action) bool {
	for _, r := range policy[action] {
		if r == role {
			return true
		}
	}
	return false
}

// AllowedRoles returns a copy of the roles permitted for action.
func AllowedRoles(action Action) []Role {
	allowed := policy[action]
	out := make([]Role, len(allowed))
	copy(out, allowed)
	return out
}
