package normalizer

// DefaultExportFormats is used when a payload lists no export formats.
func DefaultExportFormats() []ExportFormat {
	return []ExportFormat{
		{ID: "pdf", Name: "PDF Document", Extension: "PDF", Description: "Export as a professionally formatted PDF document"},
		{ID: "docx", Name: "Word Document", Extension: "DOCX", Description: "Export as an editable Microsoft Word document"},
		{ID: "html", Name: "HTML Document", Extension: "HTML", Description: "Export as an HTML document ready for web publishing"},
		{ID: "md", Name: "Markdown", Extension: "MD", Description: "Export as a Markdown file for easy editing"},
		{ID: "csv", Name: "CSV Spreadsheet", Extension: "CSV", Description: "Export data as a CSV spreadsheet"},
		{ID: "json", Name: "JSON Data", Extension: "JSON", Description: "Export raw data in JSON format"},
	}
}

// DefaultCMSPlatforms is used when a payload lists no publishing targets.
func DefaultCMSPlatforms() []CMSPlatform {
	return []CMSPlatform{
		{ID: "wordpress", Name: "WordPress", Description: "Publish directly to your WordPress site", Icon: "wordpress-icon.svg"},
		{ID: "webflow", Name: "Webflow", Description: "Export to your Webflow CMS", Icon: "webflow-icon.svg"},
		{ID: "contentful", Name: "Contentful", Description: "Publish to your Contentful workspace", Icon: "contentful-icon.svg"},
		{ID: "shopify", Name: "Shopify", Description: "Export to your Shopify blog", Icon: "shopify-icon.svg"},
		{ID: "hubspot", Name: "HubSpot", Description: "Publish to your HubSpot CMS", Icon: "hubspot-icon.svg"},
	}
}

func exportFormatsFrom(root map[string]interface{}) []ExportFormat {
	var out []ExportFormat
	for _, m := range objectsAt(root, "export_formats") {
		id := stringAt(m, "id")
		if id == "" {
			continue
		}
		out = append(out, ExportFormat{
			ID:          id,
			Name:        firstNonEmpty(stringAt(m, "name"), id),
			Extension:   stringAt(m, "extension"),
			Description: stringAt(m, "description"),
		})
	}
	if len(out) == 0 {
		return DefaultExportFormats()
	}
	return out
}

func cmsPlatformsFrom(root map[string]interface{}) []CMSPlatform {
	var out []CMSPlatform
	for _, m := range objectsAt(root, "cms_platforms") {
		id := stringAt(m, "id")
		if id == "" {
			continue
		}
		out = append(out, CMSPlatform{
			ID:          id,
			Name:        firstNonEmpty(stringAt(m, "name"), id),
			Description: stringAt(m, "description"),
			Icon:        stringAt(m, "icon"),
		})
	}
	if len(out) == 0 {
		return DefaultCMSPlatforms()
	}
	return out
}
