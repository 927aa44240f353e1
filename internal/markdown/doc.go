// Package markdown converts document trees to and from Markdown. The writer
// side keeps one serialization rule per node type; the reader side parses
// with goldmark (GFM tables, strikethrough and task lists plus the wiki's
// own math and notice syntax) and maps the goldmark AST back onto nodes.
//
// Custom encodings:
//
//	[title 1024](/api/attachments.redirect?id=…)       attachment
//	[title pdf:1024](/api/attachments.redirect?id=…)   pdf embed
//	[title](https://… "embed")                         embed
//	[title](https://… "video 640x360")                 video
//	@[label](mention://<id>/<type>/<modelId>)          mention
//	$$ … $$ and $…$                                    math
//	:::info … :::                                      notice
package markdown
