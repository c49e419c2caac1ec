package db

import (
	"path/filepath"
	"testing"

	"quill/internal/models"
	"quill/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := OpenSQLite(filepath.Join(t.TempDir(), "quill_test.db"))
	require.NoError(t, err)
	require.NoError(t, Migrate(gdb))
	return gdb
}

func makeUser(t *testing.T, gdb *gorm.DB, username, email string) models.User {
	t.Helper()
	user := models.User{Username: username, Email: email, Password: "hash", Role: models.RoleUser}
	require.NoError(t, gdb.Create(&user).Error)
	return user
}

func makePost(t *testing.T, gdb *gorm.DB, user models.User, title, slug string, categoryID *uint) models.Post {
	t.Helper()
	post := models.Post{
		Title:      title,
		Slug:       slug,
		Content:    "Content of " + title,
		Status:     models.StatusPublished,
		UserID:     user.ID,
		CategoryID: categoryID,
	}
	require.NoError(t, gdb.Create(&post).Error)
	return post
}

func TestDeletingUserCascades(t *testing.T) {
	gdb := openTestDB(t)

	author := makeUser(t, gdb, "ada", "ada@example.com")
	commenter := makeUser(t, gdb, "finn", "finn@example.com")
	post := makePost(t, gdb, author, "Cascade Check", "cascade-check", nil)

	comment := models.Comment{PostID: post.ID, UserID: commenter.ID, Content: "Nice one."}
	require.NoError(t, gdb.Create(&comment).Error)

	require.NoError(t, gdb.Delete(&models.User{}, author.ID).Error)

	var postCount, commentCount int64
	gdb.Model(&models.Post{}).Count(&postCount)
	gdb.Model(&models.Comment{}).Count(&commentCount)
	assert.Zero(t, postCount, "the author's posts should go with the account")
	assert.Zero(t, commentCount, "comments on those posts should go too")
}

func TestDeletingPostCascadesComments(t *testing.T) {
	gdb := openTestDB(t)

	author := makeUser(t, gdb, "ada", "ada@example.com")
	post := makePost(t, gdb, author, "Short Lived", "short-lived", nil)

	comment := models.Comment{PostID: post.ID, UserID: author.ID, Content: "Talking to myself."}
	require.NoError(t, gdb.Create(&comment).Error)

	require.NoError(t, gdb.Delete(&models.Post{}, post.ID).Error)

	var commentCount int64
	gdb.Model(&models.Comment{}).Count(&commentCount)
	assert.Zero(t, commentCount)

	var userCount int64
	gdb.Model(&models.User{}).Count(&userCount)
	assert.EqualValues(t, 1, userCount, "the author must survive the post")
}

func TestDeletingCategoryKeepsPosts(t *testing.T) {
	gdb := openTestDB(t)

	author := makeUser(t, gdb, "ada", "ada@example.com")
	category := models.Category{Name: "Essays", Slug: "essays"}
	require.NoError(t, gdb.Create(&category).Error)
	post := makePost(t, gdb, author, "Orphaned Soon", "orphaned-soon", &category.ID)

	require.NoError(t, gdb.Delete(&models.Category{}, category.ID).Error)

	var survivor models.Post
	require.NoError(t, gdb.First(&survivor, post.ID).Error)
	assert.Nil(t, survivor.CategoryID)
}

func TestForeignKeysAreEnforced(t *testing.T) {
	gdb := openTestDB(t)

	err := gdb.Create(&models.Comment{PostID: 999, UserID: 999, Content: "orphan"}).Error
	assert.Error(t, err, "a comment must not reference a missing post")
}

func TestSlugsAreUnique(t *testing.T) {
	gdb := openTestDB(t)
	author := makeUser(t, gdb, "ada", "ada@example.com")

	makePost(t, gdb, author, "First", "same-slug", nil)
	dup := models.Post{Title: "Second", Slug: "same-slug", Content: "x", Status: models.StatusDraft, UserID: author.ID}
	assert.Error(t, gdb.Create(&dup).Error)

	require.NoError(t, gdb.Create(&models.Category{Name: "One", Slug: "same-cat"}).Error)
	assert.Error(t, gdb.Create(&models.Category{Name: "Two", Slug: "same-cat"}).Error)
}

func TestSeedCategories(t *testing.T) {
	t.Setenv("ADMIN_EMAIL", "")
	t.Setenv("ADMIN_PASSWORD", "")

	gdb := openTestDB(t)
	Seed(gdb)

	var count int64
	gdb.Model(&models.Category{}).Count(&count)
	assert.EqualValues(t, 3, count)

	var general models.Category
	require.NoError(t, gdb.Where("name = ?", "General").First(&general).Error)
	assert.Equal(t, "general", general.Slug)

	// Running again must not duplicate
	Seed(gdb)
	gdb.Model(&models.Category{}).Count(&count)
	assert.EqualValues(t, 3, count)

	// And no admin was created without credentials configured
	var users int64
	gdb.Model(&models.User{}).Count(&users)
	assert.Zero(t, users)
}

func TestSeedAdmin(t *testing.T) {
	t.Setenv("ADMIN_EMAIL", "root@example.com")
	t.Setenv("ADMIN_PASSWORD", "super-secret")
	t.Setenv("ADMIN_USERNAME", "root")

	gdb := openTestDB(t)
	Seed(gdb)

	var admin models.User
	require.NoError(t, gdb.Where("email = ?", "root@example.com").First(&admin).Error)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.Equal(t, "root", admin.Username)
	assert.NotEqual(t, "super-secret", admin.Password, "the password must be stored hashed")
	assert.True(t, utils.CheckPasswordHash("super-secret", admin.Password))

	Seed(gdb)
	var count int64
	gdb.Model(&models.User{}).Where("email = ?", "root@example.com").Count(&count)
	assert.EqualValues(t, 1, count)
}
