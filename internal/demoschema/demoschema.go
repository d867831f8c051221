// Package demoschema builds the worked-example registry SPEC_FULL.md's
// [DEMO-SCHEMA] describes: User/Post/Profile/Tag joined through PostTag,
// expressed as schema data rather than Go structs with SQL behind them,
// so the generic Record Object engine has something concrete to run
// against in the demo server and integration tests.
package demoschema

import (
	"recordkit/internal/pipeline"
	"recordkit/internal/schema"
	"recordkit/internal/stdlib"
	"recordkit/internal/value"
)

// Build assembles the demo registry.
func Build() *schema.Registry {
	b := schema.NewBuilder()

	uppercaseOnSet := pipeline.New().Append("nameUpper", stdlib.Uppercase, nil)
	isEmailOnSave := pipeline.New().Append("email", stdlib.IsEmail, nil)

	b.AddModel("User", "users").
		Field(&schema.Field{
			Name: "id", ColumnName: "id", Type: value.KindString,
			Auto: true, Optionality: schema.Optional(),
			Write: schema.WriteOnCreateRule(), Read: schema.ReadYesRule(),
		}).
		Field(&schema.Field{
			Name: "name", ColumnName: "name", Type: value.KindString,
			Optionality: schema.Required(), Write: schema.WriteYesRule(), Read: schema.ReadYesRule(),
		}).
		Field(&schema.Field{
			Name: "nameUpper", ColumnName: "name_upper", Type: value.KindString,
			Optionality: schema.Optional(), Write: schema.WriteYesRule(), Read: schema.ReadYesRule(),
			OnSet: uppercaseOnSet,
		}).
		Field(&schema.Field{
			Name: "email", ColumnName: "email", Type: value.KindString,
			Optionality: schema.Required(), Write: schema.WriteYesRule(), Read: schema.ReadYesRule(),
			OnSave: isEmailOnSave,
		}).
		Relation(&schema.Relation{
			Name: "posts", ModelPath: "Post", IsVec: true,
			References: []string{"userId"}, DeleteRule: schema.DeleteCascade,
		}).
		Relation(&schema.Relation{
			Name: "profile", ModelPath: "Profile", IsVec: false,
			References: []string{"userId"}, DeleteRule: schema.DeleteNullify,
		}).
		PrimaryIndex("id")

	b.AddModel("Post", "posts").
		Field(&schema.Field{
			Name: "id", ColumnName: "id", Type: value.KindString,
			Auto: true, Optionality: schema.Optional(),
			Write: schema.WriteOnCreateRule(), Read: schema.ReadYesRule(),
		}).
		Field(&schema.Field{
			Name: "title", ColumnName: "title", Type: value.KindString,
			Optionality: schema.Required(), Write: schema.WriteYesRule(), Read: schema.ReadYesRule(),
		}).
		Field(&schema.Field{
			Name: "body", ColumnName: "body", Type: value.KindString,
			Optionality: schema.Optional(), Write: schema.WriteYesRule(), Read: schema.ReadYesRule(),
		}).
		Field(&schema.Field{
			Name: "userId", ColumnName: "user_id", Type: value.KindString,
			ForeignKey: true, Optionality: schema.Required(),
			Write: schema.WriteYesRule(), Read: schema.ReadYesRule(),
		}).
		Relation(&schema.Relation{
			Name: "author", ModelPath: "User", IsVec: false, IsRequired: true,
			Fields: []string{"userId"}, References: []string{"id"},
		}).
		Relation(&schema.Relation{
			Name: "tags", ModelPath: "Tag", IsVec: true,
			Through: "PostTag", Local: "post", Foreign: "tag",
		}).
		PrimaryIndex("id")

	b.AddModel("Profile", "profiles").
		Field(&schema.Field{
			Name: "id", ColumnName: "id", Type: value.KindString,
			Auto: true, Optionality: schema.Optional(),
			Write: schema.WriteOnCreateRule(), Read: schema.ReadYesRule(),
		}).
		Field(&schema.Field{
			Name: "bio", ColumnName: "bio", Type: value.KindString,
			Optionality: schema.Optional(), Write: schema.WriteYesRule(), Read: schema.ReadYesRule(),
		}).
		Field(&schema.Field{
			Name: "userId", ColumnName: "user_id", Type: value.KindString,
			ForeignKey: true, Optionality: schema.Required(),
			Write: schema.WriteYesRule(), Read: schema.ReadYesRule(),
		}).
		Relation(&schema.Relation{
			Name: "user", ModelPath: "User", IsVec: false, IsRequired: true, OneToOne: true,
			Fields: []string{"userId"}, References: []string{"id"},
		}).
		PrimaryIndex("id")

	b.AddModel("Tag", "tags").
		Field(&schema.Field{
			Name: "id", ColumnName: "id", Type: value.KindString,
			Auto: true, Optionality: schema.Optional(),
			Write: schema.WriteOnCreateRule(), Read: schema.ReadYesRule(),
		}).
		Field(&schema.Field{
			Name: "name", ColumnName: "name", Type: value.KindString,
			Optionality: schema.Required(), Write: schema.WriteYesRule(), Read: schema.ReadYesRule(),
		}).
		Relation(&schema.Relation{
			Name: "posts", ModelPath: "Post", IsVec: true,
			Through: "PostTag", Local: "tag", Foreign: "post",
		}).
		PrimaryIndex("id")

	b.AddModel("PostTag", "post_tags").
		Field(&schema.Field{
			Name: "postId", ColumnName: "post_id", Type: value.KindString,
			ForeignKey: true, Optionality: schema.Required(),
			Write: schema.WriteYesRule(), Read: schema.ReadYesRule(),
		}).
		Field(&schema.Field{
			Name: "tagId", ColumnName: "tag_id", Type: value.KindString,
			ForeignKey: true, Optionality: schema.Required(),
			Write: schema.WriteYesRule(), Read: schema.ReadYesRule(),
		}).
		Relation(&schema.Relation{
			Name: "post", ModelPath: "Post", IsVec: false,
			Fields: []string{"postId"}, References: []string{"id"},
		}).
		Relation(&schema.Relation{
			Name: "tag", ModelPath: "Tag", IsVec: false,
			Fields: []string{"tagId"}, References: []string{"id"},
		}).
		PrimaryIndex("postId", "tagId")

	return b.Build()
}

// TableNames maps every demo model with a single-column primary key to its
// physical id column, for a Store adapter (e.g. the in-memory test fake)
// that needs to auto-generate primary keys on insert. PostTag, whose key is
// the composite (postId, tagId), is not in the map.
func TableNames() map[string]string {
	return map[string]string{
		"User":    "id",
		"Post":    "id",
		"Profile": "id",
		"Tag":     "id",
	}
}
