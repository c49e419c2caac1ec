package handlers

import (
	"fmt"
	"html"
	"net/http"
	"regexp"
	"strings"
	"time"

	"quill/internal/db"
	"quill/internal/models"
	"quill/internal/utils"

	"github.com/gin-gonic/gin"
)

type SEOHandler struct{}

func NewSEOHandler() *SEOHandler {
	return &SEOHandler{}
}

// RobotsTxt keeps crawlers out of the account and admin areas.
func (h *SEOHandler) RobotsTxt(c *gin.Context) {
	siteURL := SiteURL()
	content := fmt.Sprintf(`User-agent: *
Allow: /

Disallow: /dashboard/
Disallow: /admin/
Disallow: /login
Disallow: /signup
Disallow: /api/

Sitemap: %s/sitemap.xml

Crawl-delay: 1
`, siteURL)

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.String(http.StatusOK, content)
}

// SitemapXML lists the static pages, categories and the 500 newest published
// posts. Fresh posts get a higher priority than old ones.
func (h *SEOHandler) SitemapXML(c *gin.Context) {
	siteURL := SiteURL()
	now := time.Now().Format("2006-01-02")

	xml := `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
`

	xml += fmt.Sprintf(`  <url>
    <loc>%s/</loc>
    <lastmod>%s</lastmod>
    <changefreq>daily</changefreq>
    <priority>1.0</priority>
  </url>
`, siteURL, now)

	xml += fmt.Sprintf(`  <url>
    <loc>%s/categories</loc>
    <lastmod>%s</lastmod>
    <changefreq>weekly</changefreq>
    <priority>0.8</priority>
  </url>
`, siteURL, now)

	var categories []models.Category
	db.DB.Find(&categories)
	for _, category := range categories {
		xml += fmt.Sprintf(`  <url>
    <loc>%s/category/%s</loc>
    <lastmod>%s</lastmod>
    <changefreq>daily</changefreq>
    <priority>0.7</priority>
  </url>
`, siteURL, category.Slug, now)
	}

	// Cap at 500 posts to keep the sitemap small
	var posts []models.Post
	db.DB.Where("status = ?", models.StatusPublished).
		Order("created_at DESC").Limit(500).Find(&posts)
	for _, post := range posts {
		lastmod := post.UpdatedAt.Format("2006-01-02")
		daysSinceCreated := time.Since(post.CreatedAt).Hours() / 24
		priority := 0.6
		changefreq := "weekly"

		if daysSinceCreated < 7 {
			priority = 0.8
			changefreq = "daily"
		} else if daysSinceCreated < 30 {
			priority = 0.7
		}

		xml += fmt.Sprintf(`  <url>
    <loc>%s/post/%s</loc>
    <lastmod>%s</lastmod>
    <changefreq>%s</changefreq>
    <priority>%.1f</priority>
  </url>
`, siteURL, post.Slug, lastmod, changefreq, priority)
	}

	xml += `</urlset>`

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.String(http.StatusOK, xml)
}

// RSSFeed serves the 20 newest published posts as RSS 2.0.
func (h *SEOHandler) RSSFeed(c *gin.Context) {
	siteURL := SiteURL()
	now := time.Now()

	var posts []models.Post
	db.DB.Preload("User").Preload("Category").
		Where("status = ?", models.StatusPublished).
		Order("created_at DESC").Limit(20).Find(&posts)

	rss := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">
  <channel>
    <title>Quill</title>
    <link>` + siteURL + `</link>
    <description>Essays, tutorials and notes from our authors</description>
    <language>en</language>
    <lastBuildDate>` + now.Format(time.RFC1123Z) + `</lastBuildDate>
    <atom:link href="` + siteURL + `/feed.xml" rel="self" type="application/rss+xml"/>
`

	for _, post := range posts {
		link := fmt.Sprintf("%s/post/%s", siteURL, post.Slug)

		// Render the markdown, then keep the first few blocks
		content := truncateByParagraph(string(utils.RenderMarkdown(post.Content)), 3)
		content += fmt.Sprintf(`<p><a href="%s">Read the full post →</a></p>`, link)

		categoryName := ""
		if post.Category != nil {
			categoryName = post.Category.Name
		}

		rss += `    <item>
      <title>` + escapeXML(post.Title) + `</title>
      <link>` + link + `</link>
      <description><![CDATA[` + content + `]]></description>
      <author>` + escapeXML(post.User.Username) + `</author>
      <category>` + escapeXML(categoryName) + `</category>
      <pubDate>` + post.CreatedAt.Format(time.RFC1123Z) + `</pubDate>
      <guid isPermaLink="true">` + link + `</guid>
    </item>
`
	}

	rss += `  </channel>
</rss>`

	c.Header("Content-Type", "application/rss+xml; charset=utf-8")
	c.String(http.StatusOK, rss)
}

// escapeXML escapes XML special characters.
func escapeXML(s string) string {
	return html.EscapeString(s)
}

// truncateByParagraph keeps the first maxBlocks complete block elements of an
// HTML fragment.
func truncateByParagraph(content string, maxBlocks int) string {
	re := regexp.MustCompile(`(?s)(<(?:p|div|h[1-6]|ul|ol|blockquote|pre)[^>]*>.*?</(?:p|div|h[1-6]|ul|ol|blockquote|pre)>)`)
	matches := re.FindAllString(content, maxBlocks)

	if len(matches) == 0 {
		runes := []rune(stripHTMLTags(content))
		if len(runes) > 300 {
			return string(runes[:300]) + "..."
		}
		return content
	}

	return strings.Join(matches, "\n")
}

func stripHTMLTags(s string) string {
	re := regexp.MustCompile(`<[^>]*>`)
	return re.ReplaceAllString(s, "")
}
